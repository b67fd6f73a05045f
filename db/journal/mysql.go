package journal

import (
	"database/sql"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const mysqlDatabaseName = "svault"

func newMySQLStore(configPath string) (*sql.DB, string, error) {
	if configPath == "" {
		return nil, "", errors.New("Empty journal database cfg path.")
	}

	if err := godotenv.Load(configPath); err != nil {
		return nil, "", errors.Errorf("Error loading .env file %s.", configPath)
	}

	uname := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")

	log.Info("Journal database config was parsed successfully.")

	db, err := sql.Open("mysql", uname+":"+pass+"@tcp(127.0.0.1:3306)/"+mysqlDatabaseName)
	if err != nil {
		return nil, "", err
	}

	return db, mysqlSchema, nil
}
