package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// CompletionEventsColumns holds the columns for the "completion_events" table.
	CompletionEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "event_id", Type: field.TypeString, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "level_id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "interactive_count", Type: field.TypeInt, Default: 0},
		{Name: "correct_count", Type: field.TypeInt, Default: 0},
	}
	// CompletionEventsTable holds the schema information for the "completion_events" table.
	CompletionEventsTable = &schema.Table{
		Name:       "completion_events",
		Columns:    CompletionEventsColumns,
		PrimaryKey: []*schema.Column{CompletionEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "completionevent_level_id",
				Unique:  false,
				Columns: []*schema.Column{CompletionEventsColumns[3]},
			},
			{
				Name:    "completionevent_session_id",
				Unique:  true,
				Columns: []*schema.Column{CompletionEventsColumns[4]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		CompletionEventsTable,
	}
)

const (
	colID               = "id"
	colEventID          = "event_id"
	colTimestamp        = "timestamp"
	colLevelID          = "level_id"
	colSessionID        = "session_id"
	colInteractiveCount = "interactive_count"
	colCorrectCount     = "correct_count"
)
