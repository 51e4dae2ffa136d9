package db

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/journal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultDBPath = "./journal.db"
)

// DBInvocation represents a recorded invocation in the database
type DBInvocation struct {
	gorm.Model
	Contract      string `gorm:"column:contract_address;not null;index;size:40"`
	Function      string `gorm:"column:function_name;not null;index;size:255"`
	Arguments     []byte `gorm:"column:arguments;type:blob"`   // JSON encoded hex list
	ReturnCode    int    `gorm:"column:return_code;not null;index"`
	ReturnData    []byte `gorm:"column:return_data;type:blob"` // JSON encoded hex list
	ReturnMessage string `gorm:"column:return_message"`
}

// TableName specifies the table name for DBInvocation
func (DBInvocation) TableName() string {
	return "invocations"
}

// Journal implements journal.Journal using SQLite with GORM
type Journal struct {
	db *gorm.DB
}

func init() {
	journal.Register(journal.DBBackend, NewJournal)
}

// NewJournal opens (or creates) the database at params["db_path"]
func NewJournal(params map[string]any) (journal.Journal, error) {
	dbPath := defaultDBPath
	if path, ok := params["db_path"].(string); ok && path != "" {
		dbPath = path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&DBInvocation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record implements journal.Journal
func (j *Journal) Record(ctx context.Context, e *journal.Entry) error {
	args, err := encodeList(e.Arguments)
	if err != nil {
		return err
	}
	data, err := encodeList(e.ReturnData)
	if err != nil {
		return err
	}

	row := &DBInvocation{
		Contract:      e.Contract.String(),
		Function:      e.Function,
		Arguments:     args,
		ReturnCode:    int(e.ReturnCode),
		ReturnData:    data,
		ReturnMessage: e.ReturnMessage,
	}
	if !e.Time.IsZero() {
		row.CreatedAt = e.Time
	}
	if err := j.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}
	e.ID = uint64(row.ID)
	e.Time = row.CreatedAt
	return nil
}

// List implements journal.Journal
func (j *Journal) List(ctx context.Context, filter journal.Filter) ([]journal.Entry, error) {
	query := j.db.WithContext(ctx).Model(&DBInvocation{}).Order("id DESC")
	if filter.Contract != nil {
		query = query.Where("contract_address = ?", filter.Contract.String())
	}
	if filter.Function != "" {
		query = query.Where("function_name = ?", filter.Function)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []DBInvocation
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list invocations: %w", err)
	}

	entries := make([]journal.Entry, 0, len(rows))
	for _, row := range rows {
		args, err := decodeList(row.Arguments)
		if err != nil {
			return nil, err
		}
		data, err := decodeList(row.ReturnData)
		if err != nil {
			return nil, err
		}
		entries = append(entries, journal.Entry{
			ID:            uint64(row.ID),
			Contract:      core.AddressFromString(row.Contract),
			Function:      row.Function,
			Arguments:     args,
			ReturnCode:    core.ReturnCode(row.ReturnCode),
			ReturnData:    data,
			ReturnMessage: row.ReturnMessage,
			Time:          row.CreatedAt,
		})
	}
	return entries, nil
}

// Close implements journal.Journal
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

func encodeList(list [][]byte) ([]byte, error) {
	encoded := make([]string, len(list))
	for i, item := range list {
		encoded[i] = hex.EncodeToString(item)
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return data, nil
}

func decodeList(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var encoded []string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	list := make([][]byte, len(encoded))
	for i, item := range encoded {
		decoded, err := hex.DecodeString(item)
		if err != nil {
			return nil, fmt.Errorf("failed to decode list item %d: %w", i, err)
		}
		list[i] = decoded
	}
	return list, nil
}
