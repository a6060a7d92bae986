package postgres

/*
Файл event_repo.go отвечает за персистентность журнала доменных событий.
Слой отделяет пакетную запись (горячий путь журнала) от выборок для
операторских запросов GET /v1/events.
*/

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/mandate-infra-prototype/internal/domain"
)

type EventRepo struct {
	db *sql.DB
}

// NewEventRepo создает новый экземпляр репозитория
func NewEventRepo(connString string) *EventRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		// В main мы проверим соединение через Ping
		log.Fatal(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &EventRepo{db: db}
}

// Ping проверяет доступность базы при старте
func (r *EventRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WriteBatch пишет пачку событий одним INSERT'ом.
func (r *EventRepo) WriteBatch(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице events
	numFields := 8
	placeholderStr := ""
	vals := make([]interface{}, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8)

		payload, _ := json.Marshal(e.Payload)

		vals = append(vals,
			e.ID, e.TraceID, string(e.Kind), e.Actor,
			payload, e.Status, e.Error, e.Timestamp,
		)
	}

	// Убираем лишнюю запятую в конце
	query := fmt.Sprintf(
		"INSERT INTO events (id, trace_id, kind, actor, payload, status, error, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.db.ExecContext(ctx, query, vals...)
	return err
}

// FetchEvents выбирает события с фильтрацией по типу и актору.
// Пустой фильтр означает "все значения".
func (r *EventRepo) FetchEvents(ctx context.Context, kind, actor string) ([]domain.Event, error) {
	query := `
		SELECT id, trace_id, kind, actor, payload, status, error, timestamp
		FROM events
		WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR actor = $2)
		ORDER BY timestamp DESC
		LIMIT 500`

	rows, err := r.db.QueryContext(ctx, query, kind, actor)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch events: %w", err)
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		var e domain.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.TraceID, &e.Kind, &e.Actor, &payload, &e.Status, &e.Error, &e.Timestamp); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(payload, &e.Payload)
		results = append(results, e)
	}
	return results, rows.Err()
}
