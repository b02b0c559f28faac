package main

import (
	"flag"
	"fmt"

	"github.com/eringen/newsdesk/scaffold"
)

func runInit(args []string) error {
	fset := flag.NewFlagSet("init", flag.ContinueOnError)
	dir := fset.String("dir", ".", "directory to write into")
	data := scaffold.Data{}
	fset.StringVar(&data.Name, "name", "Newsdesk", "console title")
	fset.StringVar(&data.SiteURL, "site", "", "WordPress site URL")
	fset.StringVar(&data.Username, "user", "", "WordPress username")
	fset.StringVar(&data.Category, "category", "Haber", "default post category")
	fset.StringVar(&data.ImageCredit, "credit", "", "image credit")
	if err := fset.Parse(args); err != nil {
		return err
	}

	created, err := scaffold.Write(*dir, data)
	for _, path := range created {
		fmt.Printf("  created %s\n", path)
	}
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Set ADMIN_PASSWORD, GEMINI_API_KEY and WP_APP_PASSWORD in .env, then run:")
	fmt.Println()
	fmt.Println("  newsdesk serve -config newsdesk.yaml")
	return nil
}
