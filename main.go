package main

import (
	"log"

	"ticket-booking/cmd"
	_ "ticket-booking/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
