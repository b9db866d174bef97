// Copyright 2026 The Paperdex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paperdex/paperdex/pkg/config"
	"github.com/paperdex/paperdex/pkg/search"
)

// queryFlags are the shared query and filter flags of the search-family
// commands. Quoted substrings in the query become phrase matches.
type queryFlags struct {
	Query    string `short:"q" help:"Query string; wrap phrases in double quotes."`
	YearFrom *int   `name:"year-from" help:"Only papers from this year on."`
	YearTo   *int   `name:"year-to" help:"Only papers up to this year."`
	Tag      string `help:"Only papers with this tag."`
	Folder   string `help:"Only papers in this folder."`
}

func (f *queryFlags) filters() search.Filters {
	return search.Filters{
		YearFrom: f.YearFrom,
		YearTo:   f.YearTo,
		Tag:      f.Tag,
		Folder:   f.Folder,
	}
}

// SearchCmd runs a free-text search and prints matching papers.
type SearchCmd struct {
	queryFlags
	Size  int  `help:"Max results." default:"10"`
	Count bool `help:"Only print the number of matches."`
}

func (c *SearchCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}

	if c.Count {
		count, err := client.Count(ctx, c.Query, c.filters())
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil
	}

	hits, err := client.Search(ctx, c.Query, c.filters(), c.Size)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for i, hit := range hits {
		printHit(i+1, hit)
	}
	return nil
}

// GrepCmd searches and prints highlighted context snippets around the
// matches, like grep over the full text of the collection.
type GrepCmd struct {
	queryFlags
	Size         int    `help:"Max documents." default:"10"`
	Fragments    int    `help:"Max snippets per document." default:"3"`
	FragmentSize int    `name:"fragment-size" help:"Snippet length in characters." default:"150"`
	Sort         string `enum:"relevance,year-desc,year-asc" help:"Result order." default:"relevance"`
	Highlight    string `help:"Highlight this expression instead of the query."`
}

func (c *GrepCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}

	hits, err := client.Grep(ctx, c.Query, c.filters(), search.GrepOptions{
		Size:         c.Size,
		Fragments:    c.Fragments,
		FragmentSize: c.FragmentSize,
		Sort:         c.Sort,
		Highlight:    c.Highlight,
	})
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for i, hit := range hits {
		printHit(i+1, hit)
		for _, fragment := range hit.Highlights {
			fmt.Printf("      | %s\n", strings.ReplaceAll(fragment, "\n", " "))
		}
	}
	return nil
}

// VenuesCmd aggregates matching papers by venue.
type VenuesCmd struct {
	queryFlags
	Size int `help:"Max venues." default:"20"`
}

func (c *VenuesCmd) Run(ctx context.Context, settings *config.Settings) error {
	client, err := openSearch(settings)
	if err != nil {
		return err
	}

	buckets, err := client.Venues(ctx, c.Query, c.filters(), c.Size)
	if err != nil {
		return err
	}
	if len(buckets) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, b := range buckets {
		fmt.Printf("%5d  %s\n", b.Count, b.Venue)
	}
	return nil
}

func printHit(rank int, hit search.Hit) {
	title := filepath.Base(hit.Source.FilePath)
	if hit.Source.Title != nil {
		title = *hit.Source.Title
	}
	line := fmt.Sprintf("%3d. %s", rank, title)
	if hit.Source.Year != nil {
		line += fmt.Sprintf(" (%d)", *hit.Source.Year)
	}
	if hit.Source.Venue != nil {
		line += fmt.Sprintf(" [%s]", *hit.Source.Venue)
	}
	fmt.Println(line)
	if len(hit.Source.Authors) > 0 {
		fmt.Printf("      %s\n", strings.Join(hit.Source.Authors, ", "))
	}
}
