package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"sweetshop-api/internal/model"
	"sweetshop-api/internal/service"
	"sweetshop-api/internal/testutil"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type checkoutTestContext struct {
	t      *testing.T
	shop   *shop
	sweets map[string]uuid.UUID
	result *service.PurchaseResult
	err    error
}

func (c *checkoutTestContext) reset() {
	c.shop = newShop(c.t)
	c.sweets = make(map[string]uuid.UUID)
	c.result = nil
	c.err = nil
}

func (c *checkoutTestContext) theShopSells(name string, price string, stock int) error {
	sweet := testutil.CreateSweet(c.t, c.shop.db, name, price, stock)
	c.sweets[name] = sweet.ID
	return nil
}

func (c *checkoutTestContext) sweetID(name string) (uuid.UUID, error) {
	id, ok := c.sweets[name]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown sweet %q", name)
	}
	return id, nil
}

func (c *checkoutTestContext) buy(lines ...interface{}) error {
	req := &service.PurchaseRequest{}
	for i := 0; i < len(lines); i += 2 {
		id, err := c.sweetID(lines[i+1].(string))
		if err != nil {
			return err
		}
		req.Items = append(req.Items, service.BasketItem{SweetID: id, Quantity: lines[i].(int)})
	}
	c.result, c.err = c.shop.purchase.Purchase(context.Background(), c.shop.buyer, req)
	return nil
}

func (c *checkoutTestContext) theCustomerBuys(qty int, name string) error {
	return c.buy(qty, name)
}

func (c *checkoutTestContext) theCustomerBuysTwo(qty1 int, name1 string, qty2 int, name2 string) error {
	return c.buy(qty1, name1, qty2, name2)
}

func (c *checkoutTestContext) theAdminRestocks(qty int, name string) error {
	id, err := c.sweetID(name)
	if err != nil {
		return err
	}
	_, c.err = c.shop.purchase.Restock(context.Background(), c.shop.admin, id, qty)
	return c.err
}

func (c *checkoutTestContext) theCheckoutSucceedsWithTotal(total string) error {
	if c.err != nil {
		return fmt.Errorf("checkout failed: %v", c.err)
	}
	want := decimal.RequireFromString(total)
	if !c.result.Receipt.Total.Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, c.result.Receipt.Total)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutFailsWith(message string) error {
	if c.err == nil {
		return fmt.Errorf("expected checkout to fail")
	}
	if !strings.Contains(c.err.Error(), message) {
		return fmt.Errorf("expected error containing %q, got %q", message, c.err.Error())
	}
	return nil
}

func (c *checkoutTestContext) hasInStock(name string, want int) error {
	id, err := c.sweetID(name)
	if err != nil {
		return err
	}
	if got := testutil.Quantity(c.t, c.shop.db, id); got != want {
		return fmt.Errorf("expected %s to have %d in stock, got %d", name, want, got)
	}
	return nil
}

func (c *checkoutTestContext) recorded(txType model.TransactionType) func(int) error {
	return func(want int) error {
		if got := testutil.CountTransactions(c.t, c.shop.db, txType); got != int64(want) {
			return fmt.Errorf("expected %d %s transactions, got %d", want, txType, got)
		}
		return nil
	}
}

func initializeCheckoutScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		tc := &checkoutTestContext{t: t}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		// Given steps
		ctx.Step(`^the shop sells "([^"]*)" at (\d+\.\d{2}) with (\d+) in stock$`, tc.theShopSells)

		// When steps
		ctx.Step(`^the customer buys (\d+) of "([^"]*)"$`, tc.theCustomerBuys)
		ctx.Step(`^the customer buys (\d+) of "([^"]*)" and (\d+) of "([^"]*)"$`, tc.theCustomerBuysTwo)
		ctx.Step(`^the admin restocks (\d+) of "([^"]*)"$`, tc.theAdminRestocks)

		// Then steps
		ctx.Step(`^the checkout succeeds with total (\d+\.\d{2})$`, tc.theCheckoutSucceedsWithTotal)
		ctx.Step(`^the checkout fails with "([^"]*)"$`, tc.theCheckoutFailsWith)
		ctx.Step(`^"([^"]*)" has (\d+) in stock$`, tc.hasInStock)
		ctx.Step(`^(\d+) purchases? (?:is|are) recorded$`, tc.recorded(model.TxPurchase))
		ctx.Step(`^(\d+) restocks? (?:is|are) recorded$`, tc.recorded(model.TxRestock))
	}
}

func TestCheckoutFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCheckoutScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
