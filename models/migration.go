package models

import (
	"log"

	"github.com/adepafin/adepa_backend/config"
	"gorm.io/gorm/clause"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Category{},
		&LinkedAccount{},
		&Transaction{},
		&SyncLog{},
		&SyncSettings{},
	)
	if err != nil {
		log.Fatal(err)
	}

	seedCategories()
	seedSyncSettings()
}

// seedCategories keeps the categories table in step with the static set
// the categorization engine scores against.
func seedCategories() {
	db := config.GetDB()
	for _, c := range SeedCategories {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
			log.Printf("failed to seed category %s: %v", c.ID, err)
		}
	}
}

func seedSyncSettings() {
	db := config.GetDB()
	settings := DefaultSyncSettings()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		log.Printf("failed to seed sync settings: %v", err)
	}
}

// SeedCategories mirrors the category ids known to the categorization
// engine (categorize package). Keep the two lists in sync.
var SeedCategories = []Category{
	{ID: "food_dining", Name: "Food & Dining", Type: TransactionTypeExpense, Icon: "restaurant"},
	{ID: "transport", Name: "Transport", Type: TransactionTypeExpense, Icon: "car"},
	{ID: "utilities", Name: "Utilities", Type: TransactionTypeExpense, Icon: "bolt"},
	{ID: "airtime_data", Name: "Airtime & Data", Type: TransactionTypeExpense, Icon: "phone"},
	{ID: "shopping", Name: "Shopping", Type: TransactionTypeExpense, Icon: "bag"},
	{ID: "entertainment", Name: "Entertainment", Type: TransactionTypeExpense, Icon: "film"},
	{ID: "health", Name: "Health", Type: TransactionTypeExpense, Icon: "heart"},
	{ID: "rent_housing", Name: "Rent & Housing", Type: TransactionTypeExpense, Icon: "home"},
	{ID: "fees_charges", Name: "Fees & Charges", Type: TransactionTypeExpense, Icon: "receipt"},
	{ID: "transfers", Name: "Transfers", Type: TransactionTypeExpense, Icon: "swap"},
	{ID: "salary_income", Name: "Salary", Type: TransactionTypeIncome, Icon: "briefcase"},
	{ID: "business_income", Name: "Business Income", Type: TransactionTypeIncome, Icon: "chart"},
	{ID: "other", Name: "Other", Type: TransactionTypeExpense, Icon: "dots"},
}
