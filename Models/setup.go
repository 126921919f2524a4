package Models

import (
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the database selected by DB_DRIVER (sqlite default, postgres,
// mysql) and runs the migrations. DB_DSN overrides the connection string.
func Connect() {
	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DB_DSN")

	var err error
	var connection *gorm.DB

	switch driver {
	case "postgres":
		connection, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		connection, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		if dsn == "" {
			dsn = "database.db"
		}
		connection, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	DB = connection

	if err := Migrate(DB); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}

// Migrate runs AutoMigrate in dependency order.
func Migrate(db *gorm.DB) error {
	// 1. Base rows with no foreign keys
	if err := db.AutoMigrate(
		&Company{},
		&User{},
		&School{},
		&InventoryItem{},
		&FCMToken{},
	); err != nil {
		return err
	}

	// 2. Rows referencing the base set
	if err := db.AutoMigrate(
		&Report{},
		&WorkOrder{},
		&Notification{},
	); err != nil {
		return err
	}

	// 3. Children owned by work orders
	return db.AutoMigrate(
		&WorkOrderTask{},
		&WorkOrderMaterial{},
	)
}
