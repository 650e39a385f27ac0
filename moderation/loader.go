package moderation

import (
	"bufio"
	"embed"
	"path"
	"strings"

	"github.com/samber/lo"
)

//go:embed censored/*
var censoredFolder embed.FS

// WordList is the result of loading every embedded censored file. One file
// per language, one word per line.
type WordList struct {
	Languages []string
	Words     []string
}

// LoadWords reads the embedded censored word lists. Blank lines and
// "#"-prefixed comments are skipped, duplicates across languages collapse.
func LoadWords() (WordList, error) {
	entries, err := censoredFolder.ReadDir("censored")
	if err != nil {
		return WordList{}, err
	}

	var list WordList
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		list.Languages = append(list.Languages, strings.TrimSuffix(name, path.Ext(name)))

		file, err := censoredFolder.Open(path.Join("censored", name))
		if err != nil {
			return WordList{}, err
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			list.Words = append(list.Words, strings.ToLower(word))
		}
		if err := scanner.Err(); err != nil {
			_ = file.Close()
			return WordList{}, err
		}
		_ = file.Close()
	}

	list.Words = lo.Uniq(list.Words)
	return list, nil
}
