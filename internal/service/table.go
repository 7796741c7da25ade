package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/events"
)

// TableStore defines the DB methods needed to manage tables.
type TableStore interface {
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.DiningTable, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	GetTableByNumber(ctx context.Context, number int32) (database.DiningTable, error)
	ListTables(ctx context.Context) ([]database.DiningTable, error)
	UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.DiningTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)
	DeleteTable(ctx context.Context, id uuid.UUID) (int64, error)
	CountActiveOrdersForTable(ctx context.Context, tableID uuid.UUID) (int64, error)
}

// TableInput holds the editable fields of a table.
type TableInput struct {
	Number   int32
	Capacity int32
	Floor    int32
	Section  string
}

// TableService manages dining tables and the QR entry check.
type TableService struct {
	store  TableStore
	events events.Publisher
}

func NewTableService(store TableStore, publisher events.Publisher) *TableService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TableService{store: store, events: publisher}
}

func (s *TableService) List(ctx context.Context) ([]database.DiningTable, error) {
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (s *TableService) Get(ctx context.Context, id uuid.UUID) (database.DiningTable, error) {
	t, err := s.store.GetTable(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		return database.DiningTable{}, fmt.Errorf("get table: %w", err)
	}
	return t, nil
}

// VerifyTable resolves the table a customer scanned.
func (s *TableService) VerifyTable(ctx context.Context, number int32) (database.DiningTable, error) {
	if number <= 0 {
		return database.DiningTable{}, ErrInvalidTableNumber
	}
	t, err := s.store.GetTableByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		return database.DiningTable{}, fmt.Errorf("get table by number: %w", err)
	}
	return t, nil
}

func (s *TableService) Create(ctx context.Context, in TableInput) (database.DiningTable, error) {
	if err := validateTableInput(&in); err != nil {
		return database.DiningTable{}, err
	}
	t, err := s.store.CreateTable(ctx, database.CreateTableParams{
		Number:   in.Number,
		Capacity: in.Capacity,
		Status:   enum.TableStatusAvailable,
		Floor:    in.Floor,
		Section:  optionalText(in.Section),
	})
	if err != nil {
		if isUniqueViolation(err, "") {
			return database.DiningTable{}, ErrTableNumberTaken
		}
		return database.DiningTable{}, fmt.Errorf("create table: %w", err)
	}
	publishTable(ctx, s.events, t)
	return t, nil
}

func (s *TableService) Update(ctx context.Context, id uuid.UUID, in TableInput) (database.DiningTable, error) {
	if err := validateTableInput(&in); err != nil {
		return database.DiningTable{}, err
	}
	t, err := s.store.UpdateTable(ctx, database.UpdateTableParams{
		ID:       id,
		Number:   in.Number,
		Capacity: in.Capacity,
		Floor:    in.Floor,
		Section:  optionalText(in.Section),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		if isUniqueViolation(err, "") {
			return database.DiningTable{}, ErrTableNumberTaken
		}
		return database.DiningTable{}, fmt.Errorf("update table: %w", err)
	}
	publishTable(ctx, s.events, t)
	return t, nil
}

// UpdateStatus sets a table status by hand (reservations, cleaning).
func (s *TableService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (database.DiningTable, error) {
	if !enum.IsValidTableStatus(status) {
		return database.DiningTable{}, ErrInvalidStatus
	}
	t, err := s.store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{ID: id, Status: status})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		return database.DiningTable{}, fmt.Errorf("update table status: %w", err)
	}
	publishTable(ctx, s.events, t)
	return t, nil
}

// Delete removes a table that has never been ordered against.
func (s *TableService) Delete(ctx context.Context, id uuid.UUID) error {
	active, err := s.store.CountActiveOrdersForTable(ctx, id)
	if err != nil {
		return fmt.Errorf("count table orders: %w", err)
	}
	if active > 0 {
		return ErrTableInUse
	}

	n, err := s.store.DeleteTable(ctx, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrTableInUse
		}
		return fmt.Errorf("delete table: %w", err)
	}
	if n == 0 {
		return ErrTableNotFound
	}

	s.events.Publish(ctx, events.Event{
		Type:    events.TableUpdated,
		Payload: map[string]interface{}{"id": id, "deleted": true},
	})
	return nil
}

func validateTableInput(in *TableInput) error {
	if in.Number <= 0 {
		return ErrInvalidTableNumber
	}
	if in.Capacity == 0 {
		in.Capacity = 4
	}
	if in.Capacity < 0 {
		return ErrInvalidCapacity
	}
	if in.Floor == 0 {
		in.Floor = 1
	}
	return nil
}
