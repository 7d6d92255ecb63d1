package main

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply the database schema")
	fmt.Println("  seed    - load demo timetable entries")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		db, err := cli.openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return sqlxrepos.Migrate(db)
	case "seed":
		db, err := cli.openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err = sqlxrepos.Migrate(db); err != nil {
			return err
		}
		return cli.seed(db)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) openDB() (*sqlx.DB, error) {
	if cli.conf.Database.Engine != "postgres" {
		return nil, errors.New("database.engine must be postgres")
	}
	return sqlxrepos.Open(cli.conf.Database)
}
