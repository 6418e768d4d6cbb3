package importer

import (
	"regexp"
	"strconv"
	"strings"
)

var periodRe = regexp.MustCompile(`(\d{4}_\d{2}(_\d{2})?)`)

// Period отчетный период из имени файла ("sales_2024_05_20.xlsx")
type Period struct {
	Tag    string `json:"adding"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Decade string `json:"decade"`
	Found  bool   `json:"found"`
}

// ParsePeriod извлекает год, месяц и декаду из имени файла. Декада необязательна.
func ParsePeriod(fileName string) Period {
	tag := periodRe.FindString(fileName)
	if tag == "" {
		return Period{}
	}

	parts := strings.Split(tag, "_")
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	period := Period{Tag: tag, Year: year, Month: month, Found: true}
	if len(parts) > 2 {
		period.Decade = parts[2]
	}
	return period
}
