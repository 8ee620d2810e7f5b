package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/eventhistory/internal/jsonx"
	"github.com/roach88/eventhistory/internal/kv"
)

// marshalData converts an item's Data document to canonical JSON TEXT.
func marshalData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	b, err := jsonx.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	return string(b), nil
}

// unmarshalData parses JSON TEXT into a document, keeping numbers exact.
func unmarshalData(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return map[string]any{}, nil
	}
	doc, err := jsonx.Decode([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return doc, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one item from a row selected with itemColumns.
func scanItem(row rowScanner) (*kv.Item, error) {
	var (
		item   kv.Item
		data   string
		dataGZ []byte
		src    sql.NullString
	)

	if err := row.Scan(&item.PK, &item.SK, &item.OrgID, &data, &dataGZ, &src); err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}

	doc, err := unmarshalData(data)
	if err != nil {
		return nil, fmt.Errorf("scan item %s/%s: %w", item.PK, item.SK, err)
	}
	item.Data = doc
	if len(dataGZ) > 0 {
		item.DataGZ = dataGZ
	}
	item.Src = src.String

	return &item, nil
}

const itemColumns = `pk, sk, org_id, data, data_gz, src`
