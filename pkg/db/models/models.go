package models

// All lists every persisted model, in dependency order, for schema bootstrap
// on SQLite where goose migrations are not used.
func All() []any {
	return []any{
		&GatePass{},
		&GatePassStatusEvent{},
		&PassSequence{},
		&Photo{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
