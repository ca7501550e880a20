package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rushteam/medikit/core"
)

// ErrUserNotFound 表示用户 ID 不存在；调用方据此引导注册流程。
var ErrUserNotFound = core.NewDomainError(core.ModuleDataset, core.ErrorCodeNotFound, "dataset: user not found")

var userColumns = []string{"user_id", "name", "location", "medical_condition", "gender", "age"}

// UserTable 是用户表：按 user_id 索引的用户画像集合，
// 负责查找、注册与整表持久化（每次会话结束后整表重写）。
// UserTable 不是并发安全的，单会话单写者使用。
type UserTable struct {
	users []*core.UserProfile // 按装载/注册顺序
	byID  map[int64]*core.UserProfile
}

// NewUserTable 创建空用户表。
func NewUserTable() *UserTable {
	return &UserTable{byID: make(map[int64]*core.UserProfile)}
}

// LoadUsers 从 CSV 文件装载用户表。
// 文件不存在视为空表（首次运行），不报错；
// user_id 无法解析为正整数的行跳过并记 warn 日志。
func LoadUsers(path string, opts ...LoaderOption) (*UserTable, error) {
	l := newLoader(opts...)
	t := NewUserTable()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open user table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read user table: %w", err)
	}
	if len(records) == 0 {
		return t, nil
	}

	colIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIndex[normalizeColumn(name)] = i
	}
	for _, col := range userColumns {
		if _, ok := colIndex[col]; !ok {
			l.logger.Warn("user table missing column, substituting empty values",
				"column", col, "path", path)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := colIndex[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for rowNum, row := range records[1:] {
		id, err := strconv.ParseInt(cell(row, "user_id"), 10, 64)
		if err != nil || id <= 0 {
			l.logger.Warn("skipping user row with invalid user_id",
				"row", rowNum+2, "value", cell(row, "user_id"))
			continue
		}
		age, _ := strconv.Atoi(cell(row, "age")) // 非数值按 0

		p := core.NewUserProfile(id)
		p.Name = cell(row, "name")
		p.Location = normalizeText(cell(row, "location"))
		p.MedicalCondition = normalizeText(cell(row, "medical_condition"))
		p.Gender = cell(row, "gender")
		p.Age = age
		t.put(p)
	}
	return t, nil
}

func (t *UserTable) put(p *core.UserProfile) {
	// 重复 ID 以首次出现为准，后续行忽略
	if _, ok := t.byID[p.UserID]; ok {
		return
	}
	t.users = append(t.users, p)
	t.byID[p.UserID] = p
}

// Len 返回用户数。
func (t *UserTable) Len() int { return len(t.users) }

// Lookup 按用户 ID 查找画像；不存在返回 ErrUserNotFound。
func (t *UserTable) Lookup(userID int64) (*core.UserProfile, error) {
	p, ok := t.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return p, nil
}

// Register 注册新用户：分配 现有最大 ID + 1（空表为 1），追加行。
// 传入画像的 UserID 字段被忽略并由表覆盖，返回写入后的画像。
func (t *UserTable) Register(p *core.UserProfile) *core.UserProfile {
	var maxID int64
	for id := range t.byID {
		if id > maxID {
			maxID = id
		}
	}
	p.UserID = maxID + 1
	p.UpdatedAt = time.Now()
	t.users = append(t.users, p)
	t.byID[p.UserID] = p
	return p
}

// Users 按表顺序返回全部画像。
func (t *UserTable) Users() []*core.UserProfile {
	out := make([]*core.UserProfile, len(t.users))
	copy(out, t.users)
	return out
}

// Save 把整表重写到 CSV 文件（先写临时文件再原子替换）。
func (t *UserTable) Save(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create user table: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(userColumns); err != nil {
		f.Close()
		return fmt.Errorf("write user table header: %w", err)
	}

	// 按 user_id 升序落盘，产出可复现
	rows := t.Users()
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })

	for _, p := range rows {
		record := []string{
			strconv.FormatInt(p.UserID, 10),
			p.Name,
			p.Location,
			p.MedicalCondition,
			p.Gender,
			strconv.Itoa(p.Age),
		}
		if err := writer.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("write user row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush user table: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
