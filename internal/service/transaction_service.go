package service

import (
	"context"
	"sort"
	"time"

	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const topSweetsLimit = 10

type TransactionService interface {
	GetUserTransactions(ctx context.Context, userID uuid.UUID, txType model.TransactionType, page, limit int) (*TransactionPage, error)
	GetTransaction(ctx context.Context, id uuid.UUID, requester Actor, isAdmin bool) (*model.Transaction, error)
	GetAllTransactions(ctx context.Context, filter repository.TransactionFilter) (*TransactionPage, error)
	GetSalesReport(ctx context.Context, startDate, endDate *time.Time) (*SalesReport, error)
}

type TransactionPage struct {
	Transactions []model.Transaction `json:"transactions"`
	Pagination   Pagination          `json:"pagination"`
}

type SalesSummary struct {
	TotalSales         decimal.Decimal `json:"totalSales"`
	TotalTransactions  int             `json:"totalTransactions"`
	AverageTransaction decimal.Decimal `json:"averageTransaction"`
}

type TopSweet struct {
	SweetID           uuid.UUID       `json:"sweetId"`
	SweetName         string          `json:"sweetName"`
	TotalQuantitySold int             `json:"totalQuantitySold"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
}

type SalesReport struct {
	Summary   SalesSummary `json:"summary"`
	TopSweets []TopSweet   `json:"topSweets"`
}

type transactionService struct {
	txRepo repository.TransactionRepository
}

func NewTransactionService(txRepo repository.TransactionRepository) TransactionService {
	return &transactionService{txRepo: txRepo}
}

func (s *transactionService) GetUserTransactions(ctx context.Context, userID uuid.UUID, txType model.TransactionType, page, limit int) (*TransactionPage, error) {
	return s.GetAllTransactions(ctx, repository.TransactionFilter{
		UserID: &userID,
		Type:   txType,
		Page:   page,
		Limit:  limit,
	})
}

// GetTransaction lets a customer read only their own receipts. Admins read any.
func (s *transactionService) GetTransaction(ctx context.Context, id uuid.UUID, requester Actor, isAdmin bool) (*model.Transaction, error) {
	t, err := s.txRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isAdmin && t.UserID != requester.ID {
		return nil, ErrTransactionAccessDenied
	}
	return t, nil
}

func (s *transactionService) GetAllTransactions(ctx context.Context, filter repository.TransactionFilter) (*TransactionPage, error) {
	if filter.Type != "" && filter.Type != model.TxPurchase && filter.Type != model.TxRestock {
		return nil, newValidationError("Unknown transaction type '%s'", filter.Type)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	transactions, total, err := s.txRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &TransactionPage{
		Transactions: transactions,
		Pagination: Pagination{
			Current:    filter.Page,
			Total:      int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
			Count:      len(transactions),
			TotalItems: total,
		},
	}, nil
}

func (s *transactionService) GetSalesReport(ctx context.Context, startDate, endDate *time.Time) (*SalesReport, error) {
	purchases, err := s.txRepo.FindPurchases(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return buildSalesReport(purchases), nil
}

func buildSalesReport(purchases []model.Transaction) *SalesReport {
	report := &SalesReport{
		Summary: SalesSummary{
			TotalSales:         decimal.Zero,
			AverageTransaction: decimal.Zero,
		},
		TopSweets: []TopSweet{},
	}

	bySweet := make(map[uuid.UUID]*TopSweet)
	for _, t := range purchases {
		report.Summary.TotalSales = report.Summary.TotalSales.Add(t.TotalAmount)
		report.Summary.TotalTransactions++

		for _, item := range t.Items {
			top, ok := bySweet[item.SweetID]
			if !ok {
				// first snapshot name wins, like a $first group stage
				top = &TopSweet{SweetID: item.SweetID, SweetName: item.SweetName, TotalRevenue: decimal.Zero}
				bySweet[item.SweetID] = top
			}
			top.TotalQuantitySold += item.Quantity
			top.TotalRevenue = top.TotalRevenue.Add(item.Subtotal)
		}
	}

	if report.Summary.TotalTransactions > 0 {
		report.Summary.AverageTransaction = report.Summary.TotalSales.
			Div(decimal.NewFromInt(int64(report.Summary.TotalTransactions))).
			Round(2)
	}

	for _, top := range bySweet {
		report.TopSweets = append(report.TopSweets, *top)
	}
	sort.Slice(report.TopSweets, func(i, j int) bool {
		a, b := report.TopSweets[i], report.TopSweets[j]
		if a.TotalQuantitySold != b.TotalQuantitySold {
			return a.TotalQuantitySold > b.TotalQuantitySold
		}
		return a.SweetName < b.SweetName
	})
	if len(report.TopSweets) > topSweetsLimit {
		report.TopSweets = report.TopSweets[:topSweetsLimit]
	}
	return report
}
