package util

import "github.com/pterm/pterm"

const Version = "0.3.0"

// Debug prints only when debug messages are enabled (--debug).
func Debug(format string, args ...interface{}) {
	pterm.Debug.Printfln(format, args...)
}

func Fatal(err error) {
	if err != nil {
		if hint := Hint(err); hint != "" {
			pterm.Info.Println(hint)
		}
		pterm.Fatal.Println(err)
	}
}
