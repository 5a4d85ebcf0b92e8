package lib

import (
	"errors"
	"log"
	"os"
)

func open(path string) error {
	if path == "" {
		os.Exit(1) // want `вызов os.Exit вне пакета main запрещён`
	}
	if path == "-" {
		log.Fatalf("bad path %q", path) // want `вызов log.Fatalf вне пакета main запрещён`
	}
	logger := log.New(os.Stderr, "", 0)
	logger.Fatal("unreachable") // want `вызов \(\*log.Logger\).Fatal вне пакета main запрещён`
	return errors.New("not implemented")
}

func ok() {
	log.Println("fine")
	exit := func(int) {}
	exit(1)
}
