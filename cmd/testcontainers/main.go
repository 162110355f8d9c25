// main.go
//
// An intern management service: role-gated interns, tasks, attendance, reviews and messaging
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of internportal.
// internportal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// internportal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with internportal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/localnerve/internportal/internal/devdb"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show usage")

	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run a throwaway internportal database container and print its connection settings.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to a .env file with DB_TYPE, DB_IMAGE, DB_DATABASE,
DB_USER, DB_PASSWORD and DB_ROOT_PASSWORD overrides

example
  testcontainers -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	ctx := context.Background()
	c, err := devdb.Start(ctx, devdb.Options{
		DBType:       os.Getenv("DB_TYPE"),
		Image:        os.Getenv("DB_IMAGE"),
		Database:     os.Getenv("DB_DATABASE"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		RootPassword: os.Getenv("DB_ROOT_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("Failed to start database container: %v\n", err)
	}

	for _, line := range c.Env() {
		fmt.Println(line)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating database container...\n", sig)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Terminate(stopCtx); err != nil {
		log.Printf("Failed to terminate container: %v\n", err)
	}
}
