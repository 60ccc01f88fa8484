package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/lysyi3m/mail-comb/app/database"
)

const latestArticles = 3

func printStats(w io.Writer, db *database.DB) error {
	stats, err := database.GetStats(db)
	if err != nil {
		return err
	}

	articles, err := database.NewArticleRepository(db).GetLatestArticles(latestArticles)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Processed entries: %d\n", stats.Entries)
	fmt.Fprintf(w, "Articles:          %d (spam: %d)\n", stats.Articles, stats.SpamArticles)
	fmt.Fprintf(w, "Failed crawls:     %d\n", stats.FailedCrawls)

	if len(articles) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\nLatest %d articles:\n", len(articles))
	for _, article := range articles {
		fmt.Fprintf(w, "- [%d] %s\n", article.ID, article.Title)
		fmt.Fprintf(w, "  %s\n", article.OriginalLink)
		if len(article.Tags) > 0 {
			fmt.Fprintf(w, "  tags: %s\n", strings.Join(article.Tags, ", "))
		}
	}

	return nil
}
