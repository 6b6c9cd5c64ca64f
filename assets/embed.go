package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed phrases.txt tutorial.txt
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

func PhrasesList() ([]string, error) {
	return readLines("phrases.txt")
}

func TutorialList() ([]string, error) {
	return readLines("tutorial.txt")
}
