package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/eringen/newsdesk/compositor"
)

func runCompose(args []string) error {
	fset := flag.NewFlagSet("compose", flag.ContinueOnError)
	in := fset.String("in", "", "source image (JPEG, PNG or GIF)")
	out := fset.String("out", "", "output JPEG")
	headline := fset.String("headline", "", "headline to draw")
	credit := fset.String("credit", "", "image credit, bottom right")
	quality := fset.Int("quality", compositor.DefaultQuality, "JPEG quality")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" || *headline == "" {
		fset.Usage()
		return errors.New("compose: -in, -out and -headline are required")
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	c, err := compositor.New(compositor.WithQuality(*quality))
	if err != nil {
		return err
	}
	jpg, err := c.Compose(raw, compositor.Overlay{Headline: *headline, Credit: *credit})
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, jpg, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(jpg))
	return nil
}
