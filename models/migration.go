package models

import (
	"log"

	"bitbucket.org/zeatech/resto_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Restaurant{},
		&Supplier{},
		&StockItem{}, &StockMovement{},
		&Purchase{}, &PurchaseItem{},
		&Sale{}, &SaleItem{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
