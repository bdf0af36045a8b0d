package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImagesDir is the directory under each manual that holds its pages.
const ImagesDir = "images"

// Page is one page file of a manual. Path is relative to the docs directory and uses
// forward slashes; it is the identifier cited in answers.
type Page struct {
	Manual string
	Path   string
}

// DiscoverPages lists the pages of every manual under docsDir, laid out as
// <docsDir>/<manual>/images/<page>. Only files whose extension is in exts are returned.
// Pages are sorted by manual, then path.
func DiscoverPages(docsDir string, exts []string) ([]Page, error) {
	manuals, err := ListManuals(docsDir)
	if err != nil {
		return nil, err
	}
	var pages []Page
	for _, m := range manuals {
		mp, err := ListPages(docsDir, m, exts)
		if err != nil {
			return nil, err
		}
		pages = append(pages, mp...)
	}
	return pages, nil
}

// ListManuals returns the sorted names of directories under docsDir that contain an
// images directory.
func ListManuals(docsDir string) ([]string, error) {
	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return nil, fmt.Errorf("read docs dir: %w", err)
	}
	var manuals []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if info, err := os.Stat(filepath.Join(docsDir, e.Name(), ImagesDir)); err == nil && info.IsDir() {
			manuals = append(manuals, e.Name())
		}
	}
	sort.Strings(manuals)
	return manuals, nil
}

// ListPages returns the sorted pages of one manual.
func ListPages(docsDir, manual string, exts []string) ([]Page, error) {
	dir := filepath.Join(docsDir, manual, ImagesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read pages of %s: %w", manual, err)
	}
	var pages []Page
	for _, e := range entries {
		if !e.Type().IsRegular() || !extensionAllowed(filepath.Ext(e.Name()), exts) {
			continue
		}
		pages = append(pages, Page{
			Manual: manual,
			Path:   manual + "/" + ImagesDir + "/" + e.Name(),
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
	return pages, nil
}

// Abs returns the file path of p under docsDir.
func (p Page) Abs(docsDir string) string {
	return filepath.Join(docsDir, filepath.FromSlash(p.Path))
}

func extensionAllowed(ext string, allowed []string) bool {
	ext = strings.ToLower(ext)
	for _, a := range allowed {
		if strings.ToLower(a) == ext {
			return true
		}
	}
	return false
}
