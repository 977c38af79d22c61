package store

import sq "github.com/Masterminds/squirrel"

const (
	profilesTable    = "profiles"
	credentialsTable = "credentials"
)

var sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func buildUpsertProfileQuery(uid string, payload []byte) (string, []any, error) {
	return sqlite.
		Insert(profilesTable).
		Columns("uid", "payload").
		Values(uid, payload).
		Suffix("ON CONFLICT (uid) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP").
		ToSql()
}

func buildSelectProfileQuery(uid string) (string, []any, error) {
	return sqlite.
		Select("payload").
		From(profilesTable).
		Where(sq.Eq{"uid": uid}).
		ToSql()
}

func buildDeleteProfileQuery(uid string) (string, []any, error) {
	return sqlite.
		Delete(profilesTable).
		Where(sq.Eq{"uid": uid}).
		ToSql()
}

func buildUpsertCredentialQuery(uid, sealed string) (string, []any, error) {
	return sqlite.
		Insert(credentialsTable).
		Columns("uid", "sealed").
		Values(uid, sealed).
		Suffix("ON CONFLICT (uid) DO UPDATE SET sealed = excluded.sealed, updated_at = CURRENT_TIMESTAMP").
		ToSql()
}

func buildSelectCredentialQuery(uid string) (string, []any, error) {
	return sqlite.
		Select("sealed").
		From(credentialsTable).
		Where(sq.Eq{"uid": uid}).
		ToSql()
}

func buildDeleteCredentialQuery(uid string) (string, []any, error) {
	return sqlite.
		Delete(credentialsTable).
		Where(sq.Eq{"uid": uid}).
		ToSql()
}
