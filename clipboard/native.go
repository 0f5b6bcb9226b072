package clipboard

import cb "github.com/atotto/clipboard"

func nativeCopy(text string) error {
	return cb.WriteAll(text)
}

func Read() (string, error) {
	return cb.ReadAll()
}
