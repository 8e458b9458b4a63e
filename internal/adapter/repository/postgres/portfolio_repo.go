package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	q Querier
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(q Querier) domain.PortfolioRepository {
	return &portfolioRepository{q: q}
}

const selectPortfolio = `
	SELECT id, name, inception_date, initial_value_usd
	FROM portfolios
`

// GetByID retrieves a portfolio by its ID
func (r *portfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	p, err := scanPortfolio(r.q.QueryRowContext(ctx, selectPortfolio+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio by ID: %w", err)
	}
	return p, nil
}

// GetByName retrieves a portfolio by its unique name
func (r *portfolioRepository) GetByName(ctx context.Context, name string) (*domain.Portfolio, error) {
	p, err := scanPortfolio(r.q.QueryRowContext(ctx, selectPortfolio+` WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio by name: %w", err)
	}
	return p, nil
}

// Create creates a new portfolio
func (r *portfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	if err := portfolio.Validate(); err != nil {
		return err
	}
	if portfolio.ID == uuid.Nil {
		portfolio.ID = uuid.New()
	}

	query := `
		INSERT INTO portfolios (id, name, inception_date, initial_value_usd)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		portfolio.ID,
		portfolio.Name,
		domain.FormatDate(portfolio.InceptionDate),
		portfolio.InitialValueUSD.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	return nil
}

// UpdateInitialValue corrects the initial value of a portfolio
func (r *portfolioRepository) UpdateInitialValue(ctx context.Context, id uuid.UUID, value decimal.Decimal) error {
	query := `
		UPDATE portfolios
		SET initial_value_usd = $2, updated_at = now()
		WHERE id = $1
	`

	res, err := r.q.ExecContext(ctx, query, id, value.String())
	if err != nil {
		return fmt.Errorf("failed to update portfolio initial value: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("portfolio %s", id))
}

// Delete removes a portfolio; weights, lots and trades go with it through ON DELETE CASCADE
func (r *portfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("portfolio %s", id))
}

func scanPortfolio(row *sql.Row) (*domain.Portfolio, error) {
	var p domain.Portfolio
	var inception time.Time
	var valueStr string

	if err := row.Scan(&p.ID, &p.Name, &inception, &valueStr); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse initial_value_usd: %w", err)
	}
	p.InitialValueUSD = value
	p.InceptionDate = domain.TruncateDay(inception)

	return &p, nil
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
