package model

import (
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/text/unicode/norm"
)

// TFIDFVectorizer 是文本相似度引擎：把症状文本映射到固定的 TF-IDF
// 特征空间，并支持查询文本与全部语料的批量余弦相似度。
//
// 核心约束：词表只在构造时拟合一次。
//   - 构造函数扫描语料，建立 词 -> 列下标 的词表与 IDF 权重
//   - 构造完成后没有任何改变词表的方法，查询只做只读投影
//   - 查询中的未登录词直接忽略，不报错、不扩表
//
// 因此同一个实例可被多个 goroutine 并发查询。
//
// 工程特征：
//   - 实时性：好（词表 O(1) 查找，逐条点积）
//   - 计算复杂度：低（语料规模为目录行数，几百到几千）
//   - 可解释性：好（每一维对应一个词）
type TFIDFVectorizer struct {
	vocabulary map[string]int // 词 -> 列下标，构造后只读
	idf        []float64      // 按列下标对齐的 IDF 权重
	docVectors [][]float64    // 语料向量，按语料顺序对齐
	stopWords  map[string]bool
	workers    int
}

// TFIDFOption 配置 TFIDFVectorizer 的构造行为。
type TFIDFOption func(*TFIDFVectorizer)

// WithStopWords 覆盖默认英文停用词表。
func WithStopWords(words []string) TFIDFOption {
	return func(v *TFIDFVectorizer) {
		set := make(map[string]bool, len(words))
		for _, w := range words {
			set[strings.ToLower(w)] = true
		}
		v.stopWords = set
	}
}

// WithWorkers 设置语料向量化的并发度（仅构造阶段生效）。
// n <= 1 时串行计算。
func WithWorkers(n int) TFIDFOption {
	return func(v *TFIDFVectorizer) {
		v.workers = n
	}
}

// NewTFIDFVectorizer 对语料完成一次性拟合并返回引擎。
// corpus 的顺序决定 Similarities/DocVector 的下标对齐，调用方负责保持
// 与医院目录一致。空语料（或全部为停用词）得到空词表的退化引擎：
// 合法可用，任何查询的相似度均为 0。构造不返回错误。
func NewTFIDFVectorizer(corpus []string, opts ...TFIDFOption) *TFIDFVectorizer {
	v := &TFIDFVectorizer{
		stopWords: englishStopWords,
		workers:   1,
	}
	for _, opt := range opts {
		opt(v)
	}

	// 1. 分词（语料顺序即向量顺序）
	docTokens := make([][]string, len(corpus))
	for i, doc := range corpus {
		docTokens[i] = v.tokenize(doc)
	}

	// 2. 建词表与文档频次，列下标按首次出现顺序分配
	v.vocabulary = make(map[string]int)
	df := make([]int, 0)
	for _, tokens := range docTokens {
		seen := make(map[string]bool, len(tokens))
		for _, t := range tokens {
			if seen[t] {
				continue
			}
			seen[t] = true
			idx, ok := v.vocabulary[t]
			if !ok {
				idx = len(v.vocabulary)
				v.vocabulary[t] = idx
				df = append(df, 0)
			}
			df[idx]++
		}
	}

	// 3. 平滑 IDF：ln((1+N)/(1+df)) + 1
	n := float64(len(corpus))
	v.idf = make([]float64, len(df))
	for i, d := range df {
		v.idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	// 4. 向量化语料
	v.docVectors = make([][]float64, len(docTokens))
	if v.workers > 1 && len(docTokens) > 1 {
		v.vectorizeConcurrent(docTokens)
	} else {
		for i, tokens := range docTokens {
			v.docVectors[i] = v.vectorize(tokens)
		}
	}
	return v
}

// vectorizeConcurrent 用协程池并行向量化语料，仅在构造阶段调用。
func (v *TFIDFVectorizer) vectorizeConcurrent(docTokens [][]string) {
	pool, err := ants.NewPool(v.workers)
	if err != nil {
		for i, tokens := range docTokens {
			v.docVectors[i] = v.vectorize(tokens)
		}
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, tokens := range docTokens {
		i, tokens := i, tokens
		wg.Add(1)
		task := func() {
			defer wg.Done()
			v.docVectors[i] = v.vectorize(tokens)
		}
		if err := pool.Submit(task); err != nil {
			// 池不可用时降级为当前协程执行
			task()
		}
	}
	wg.Wait()
}

// tokenize 归一化并切分文本：NFKC、小写、按非字母数字切分、去停用词。
func (v *TFIDFVectorizer) tokenize(text string) []string {
	text = norm.NFKC.String(text)
	text = strings.ToLower(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if v.stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// vectorize 将分词结果映射为 TF-IDF 向量：tf = 词次数/总词数。
func (v *TFIDFVectorizer) vectorize(tokens []string) []float64 {
	vec := make([]float64, len(v.vocabulary))
	if len(tokens) == 0 {
		return vec
	}
	counts := make(map[int]int, len(tokens))
	for _, t := range tokens {
		idx, ok := v.vocabulary[t]
		if !ok {
			// 未登录词：忽略
			continue
		}
		counts[idx]++
	}
	for idx, c := range counts {
		tf := float64(c) / float64(len(tokens))
		vec[idx] = tf * v.idf[idx]
	}
	return vec
}

// Transform 将查询文本投影到固定词表的 TF-IDF 向量。
// 未登录词被忽略；全部未登录时返回零向量。
func (v *TFIDFVectorizer) Transform(text string) []float64 {
	return v.vectorize(v.tokenize(text))
}

// Similarities 返回查询文本与每条语料的余弦相似度，按语料顺序对齐。
// 查询向量或语料向量为零向量时，对应相似度为 0，不会出现除零。
func (v *TFIDFVectorizer) Similarities(text string) []float64 {
	query := v.Transform(text)
	sims := make([]float64, len(v.docVectors))
	for i, doc := range v.docVectors {
		sims[i] = cosineSimilarity(query, doc)
	}
	return sims
}

// DocCount 返回语料条数。
func (v *TFIDFVectorizer) DocCount() int {
	return len(v.docVectors)
}

// VocabSize 返回词表大小（即向量维度）。
func (v *TFIDFVectorizer) VocabSize() int {
	return len(v.vocabulary)
}

// DocVector 返回第 i 条语料向量的副本。
func (v *TFIDFVectorizer) DocVector(i int) []float64 {
	out := make([]float64, len(v.docVectors[i]))
	copy(out, v.docVectors[i])
	return out
}

// cosineSimilarity 计算两个向量的余弦相似度。
// 任一向量为零向量时返回 0。
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
