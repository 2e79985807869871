// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package trace

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const gormSpanKey = "otel:span"

// GormPlugin opens a client span around every gorm operation.
type GormPlugin struct {
	WithQuery bool
	WithRows  bool
}

func (p *GormPlugin) Name() string {
	return "opentelemetry"
}

func (p *GormPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("otel:before_create", p.before),
		cb.Create().After("gorm:create").Register("otel:after_create", p.after),
		cb.Query().Before("gorm:query").Register("otel:before_query", p.before),
		cb.Query().After("gorm:query").Register("otel:after_query", p.after),
		cb.Update().Before("gorm:update").Register("otel:before_update", p.before),
		cb.Update().After("gorm:update").Register("otel:after_update", p.after),
		cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before),
		cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after),
		cb.Row().Before("gorm:row").Register("otel:before_row", p.before),
		cb.Row().After("gorm:row").Register("otel:after_row", p.after),
		cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before),
		cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after),
	)
}

func (p *GormPlugin) before(db *gorm.DB) {
	if db.Statement == nil || db.Statement.Context == nil {
		return
	}
	op := operationName(db)
	ctx, span := otel.Tracer("modhub/gorm").Start(db.Statement.Context, "gorm."+op,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", db.Dialector.Name()),
		attribute.String("db.operation", op),
	)
	db.Statement.Context = ctx
	db.InstanceSet(gormSpanKey, span)
}

func (p *GormPlugin) after(db *gorm.DB) {
	v, ok := db.InstanceGet(gormSpanKey)
	if !ok {
		return
	}
	span, ok := v.(oteltrace.Span)
	if !ok {
		return
	}
	defer span.End()

	if db.Statement.Schema != nil {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Schema.Table))
	}
	if p.WithQuery {
		span.SetAttributes(attribute.String("db.statement", db.Statement.SQL.String()))
	}
	if p.WithRows {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func operationName(db *gorm.DB) string {
	sql := strings.TrimSpace(db.Statement.SQL.String())
	if len(sql) < 6 {
		return "query"
	}
	switch strings.ToUpper(sql[:6]) {
	case "INSERT":
		return "create"
	case "UPDATE":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return "query"
	}
}

// RegisterGormPlugin registers the OpenTelemetry plugin to the gorm instance
func RegisterGormPlugin(db *gorm.DB, withQuery, withRows bool) error {
	return db.Use(&GormPlugin{WithQuery: withQuery, WithRows: withRows})
}
