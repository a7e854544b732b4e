package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finflow/internal/domain"
	"github.com/dvloznov/finflow/internal/store"
	"google.golang.org/api/iterator"
)

// InsertTransaction inserts one row with a DML statement. Streaming inserts are not
// used because rows in the streaming buffer cannot be updated or deleted.
func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	row, err := transactionToRow(tx)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}

	q := r.client.Query(fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (
			@id,
			@user_email,
			@date,
			@created_at,
			@amount,
			@type,
			@source,
			@category,
			@description,
			PARSE_JSON(@items),
			@tax,
			@discount,
			@receipt_uri
		)
	`, r.table(transactionsTable), transactionColumns))
	q.Parameters = rowParameters(row)

	if _, err := runDML(ctx, q, "InsertTransaction"); err != nil {
		return err
	}
	return nil
}

// UpdateTransaction rewrites every editable column of an owned row.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	row, err := transactionToRow(tx)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s
		SET date = @date,
		    amount = @amount,
		    type = @type,
		    source = @source,
		    category = @category,
		    description = @description,
		    items = PARSE_JSON(@items),
		    tax = @tax,
		    discount = @discount,
		    receipt_uri = @receipt_uri
		WHERE id = @id AND user_email = @user_email
	`, r.table(transactionsTable)))
	q.Parameters = withoutParameter(rowParameters(row), "created_at")

	affected, err := runDML(ctx, q, "UpdateTransaction")
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("UpdateTransaction: %s: %w", tx.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes one owned row.
func (r *Repository) DeleteTransaction(ctx context.Context, userEmail, id string) error {
	q := r.client.Query(fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = @id AND user_email = @user_email
	`, r.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "user_email", Value: userEmail},
	}

	affected, err := runDML(ctx, q, "DeleteTransaction")
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("DeleteTransaction: %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// GetTransaction fetches one owned row.
func (r *Repository) GetTransaction(ctx context.Context, userEmail, id string) (*domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = @id AND user_email = @user_email
		LIMIT 1
	`, transactionColumns, r.table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "id", Value: id},
		{Name: "user_email", Value: userEmail},
	}

	txs, err := r.readTransactions(ctx, q, "GetTransaction")
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("GetTransaction: %s: %w", id, store.ErrNotFound)
	}
	return txs[0], nil
}

// ListTransactions runs a count query and a page query with the same predicate.
func (r *Repository) ListTransactions(ctx context.Context, filter store.TransactionFilter) (*store.TransactionPage, error) {
	filter = filter.Normalize()

	where, params, err := buildTransactionWhere(filter)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	total, err := r.count(ctx, fmt.Sprintf(`SELECT COUNT(*) AS n FROM %s WHERE %s`,
		r.table(transactionsTable), where), params, "ListTransactions")
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s
	`, transactionColumns, r.table(transactionsTable), where, orderBy(filter))

	pageParams := append([]bigquery.QueryParameter(nil), params...)
	if !filter.Unpaged {
		query += "\nLIMIT @limit OFFSET @offset"
		pageParams = append(pageParams,
			bigquery.QueryParameter{Name: "limit", Value: filter.Limit},
			bigquery.QueryParameter{Name: "offset", Value: filter.Offset()},
		)
	}

	q := r.client.Query(query)
	q.Parameters = pageParams

	txs, err := r.readTransactions(ctx, q, "ListTransactions")
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}

	page := &store.TransactionPage{
		Transactions: txs,
		Total:        int(total),
		Page:         filter.Page,
		Limit:        filter.Limit,
	}
	if filter.Unpaged {
		page.Page, page.Limit = 1, len(txs)
	}
	return page, nil
}

// CountTransactions counts a user's rows for one source on one date.
func (r *Repository) CountTransactions(ctx context.Context, userEmail string, source domain.Source, date string) (int, error) {
	d, err := civil.ParseDate(date)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: parsing date %q: %w", date, store.ErrInvalidInput)
	}

	n, err := r.count(ctx, fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE user_email = @user_email
		  AND source = @source
		  AND date = @date
	`, r.table(transactionsTable)), []bigquery.QueryParameter{
		{Name: "user_email", Value: userEmail},
		{Name: "source", Value: string(source)},
		{Name: "date", Value: d},
	}, "CountTransactions")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *Repository) readTransactions(ctx context.Context, q *bigquery.Query, op string) ([]*domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		tx, err := rowToTransaction(&row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r *Repository) count(ctx context.Context, query string, params []bigquery.QueryParameter, op string) (int64, error) {
	q := r.client.Query(query)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: count read: %w", op, err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("%s: count next: %w", op, err)
	}
	return row.N, nil
}

// buildTransactionWhere translates a normalized filter into a WHERE predicate and
// its named parameters. user_email is always required.
func buildTransactionWhere(f store.TransactionFilter) (string, []bigquery.QueryParameter, error) {
	if f.UserEmail == "" {
		return "", nil, fmt.Errorf("buildTransactionWhere: user email is required: %w", store.ErrInvalidInput)
	}

	clauses := []string{"user_email = @user_email"}
	params := []bigquery.QueryParameter{{Name: "user_email", Value: f.UserEmail}}

	if f.Type != "" {
		clauses = append(clauses, "type = @type")
		params = append(params, bigquery.QueryParameter{Name: "type", Value: string(f.Type)})
	}
	if f.Category != "" {
		clauses = append(clauses, "LOWER(category) = LOWER(@category)")
		params = append(params, bigquery.QueryParameter{Name: "category", Value: f.Category})
	}
	if f.Source != "" {
		clauses = append(clauses, "source = @source")
		params = append(params, bigquery.QueryParameter{Name: "source", Value: string(f.Source)})
	}
	if f.From != "" {
		d, err := civil.ParseDate(f.From)
		if err != nil {
			return "", nil, fmt.Errorf("buildTransactionWhere: from %q: %w", f.From, store.ErrInvalidInput)
		}
		clauses = append(clauses, "date >= @from_date")
		params = append(params, bigquery.QueryParameter{Name: "from_date", Value: d})
	}
	if f.To != "" {
		d, err := civil.ParseDate(f.To)
		if err != nil {
			return "", nil, fmt.Errorf("buildTransactionWhere: to %q: %w", f.To, store.ErrInvalidInput)
		}
		clauses = append(clauses, "date <= @to_date")
		params = append(params, bigquery.QueryParameter{Name: "to_date", Value: d})
	}
	if f.Search != "" {
		clauses = append(clauses, "(STRPOS(LOWER(IFNULL(description, '')), @search) > 0 OR STRPOS(LOWER(IFNULL(category, '')), @search) > 0)")
		params = append(params, bigquery.QueryParameter{Name: "search", Value: strings.ToLower(f.Search)})
	}

	return strings.Join(clauses, "\n\t\t  AND "), params, nil
}

func orderBy(f store.TransactionFilter) string {
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	if f.SortBy == store.SortByAmount {
		return fmt.Sprintf("amount %s, date %s, created_at %s", dir, dir, dir)
	}
	return fmt.Sprintf("date %s, created_at %s", dir, dir)
}

func rowParameters(row *TransactionRow) []bigquery.QueryParameter {
	items := bigquery.NullString{StringVal: row.Items.JSONVal, Valid: row.Items.Valid}
	return []bigquery.QueryParameter{
		{Name: "id", Value: row.ID},
		{Name: "user_email", Value: row.UserEmail},
		{Name: "date", Value: row.Date},
		{Name: "created_at", Value: row.CreatedAt},
		{Name: "amount", Value: row.Amount},
		{Name: "type", Value: row.Type},
		{Name: "source", Value: row.Source},
		{Name: "category", Value: row.Category},
		{Name: "description", Value: row.Description},
		{Name: "items", Value: items},
		{Name: "tax", Value: row.Tax},
		{Name: "discount", Value: row.Discount},
		{Name: "receipt_uri", Value: row.ReceiptURI},
	}
}

func withoutParameter(params []bigquery.QueryParameter, name string) []bigquery.QueryParameter {
	out := params[:0:0]
	for _, p := range params {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}
