// Package seed loads demo accounts and a starter catalogue.
package seed

import (
	"context"

	"sweetshop-api/internal/model"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DemoPassword = "Password123"

type demoUser struct {
	name, email, role string
}

type demoSweet struct {
	name, category, price, description, image string
	quantity                                  int
}

var users = []demoUser{
	{"Admin User", "admin@sweetshop.com", model.RoleAdmin},
	{"John Doe", "john@example.com", model.RoleUser},
	{"Jane Smith", "jane@example.com", model.RoleUser},
}

var sweets = []demoSweet{
	{"Chocolate Cake", "Cakes", "25.99", "Rich, moist chocolate cake with layers of chocolate ganache", "🍰", 10},
	{"Strawberry Cupcake", "Cupcakes", "4.99", "Light and fluffy cupcakes topped with strawberry buttercream", "🧁", 24},
	{"Vanilla Ice Cream", "Ice Cream", "8.99", "Creamy vanilla ice cream made with real vanilla beans", "🍦", 15},
	{"Gummy Bears", "Candies", "3.49", "Colorful fruit-flavored gummy bears in assorted flavors", "🐻", 50},
	{"Chocolate Cookies", "Cookies", "12.99", "Homemade chocolate chip cookies with premium chocolate chips", "🍪", 30},
	{"Rainbow Donuts", "Donuts", "6.99", "Glazed donuts with colorful rainbow sprinkles", "🍩", 18},
	{"Cotton Candy", "Candies", "5.49", "Light and fluffy cotton candy in pink and blue", "🍭", 25},
	{"Apple Pie", "Pies", "18.99", "Traditional apple pie with cinnamon and flaky crust", "🥧", 8},
	{"Chocolate Truffles", "Chocolates", "15.99", "Handcrafted chocolate truffles with various fillings", "🍫", 20},
	{"Lemon Tart", "Tarts", "9.99", "Zesty lemon curd in a buttery pastry shell", "🍋", 0},
}

type Result struct {
	Users  int
	Sweets int
}

// Run inserts the demo data. With reset it first wipes the catalogue.
// Accounts whose email already exists are left untouched.
func Run(ctx context.Context, db *gorm.DB, reset bool) (*Result, error) {
	res := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reset {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Sweet{}).Error; err != nil {
				return errors.Wrap(err, "clear sweets")
			}
		}

		for _, u := range users {
			user := &model.User{Name: u.name, Email: u.email, Role: u.role}
			user.CreatedBy = "seed"
			user.UpdatedBy = "seed"
			if err := user.SetPassword(DemoPassword); err != nil {
				return errors.Wrap(err, "hash password")
			}
			created := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(user)
			if created.Error != nil {
				return errors.Wrapf(created.Error, "create user %s", u.email)
			}
			res.Users += int(created.RowsAffected)
		}

		var existing int64
		if err := tx.Model(&model.Sweet{}).Count(&existing).Error; err != nil {
			return errors.Wrap(err, "count sweets")
		}
		if existing > 0 {
			return nil
		}

		for _, s := range sweets {
			sweet := &model.Sweet{
				Name:        s.name,
				Category:    s.category,
				Description: s.description,
				Price:       decimal.RequireFromString(s.price),
				Quantity:    s.quantity,
				Image:       s.image,
			}
			sweet.CreatedBy = "seed"
			sweet.UpdatedBy = "seed"
			if err := tx.Create(sweet).Error; err != nil {
				return errors.Wrapf(err, "create sweet %s", s.name)
			}
			res.Sweets++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"users": res.Users, "sweets": res.Sweets}).Info("seed completed")
	return res, nil
}
