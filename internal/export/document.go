// Package export renders cover letters as downloadable documents.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatPDF, FormatDOCX:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// labels holds the fixed wording of the letter header and file name.
type labels struct {
	company  string
	position string
	att      string
	prefix   string
	filePos  string
}

var (
	danishLabels = labels{
		company:  "Virksomhed",
		position: "stillingen",
		att:      "Att.: Ansøgning til %s",
		prefix:   "Ansøgning",
		filePos:  "Stilling",
	}
	englishLabels = labels{
		company:  "Company",
		position: "the position",
		att:      "Re: Application for %s",
		prefix:   "Cover Letter",
		filePos:  "Position",
	}
)

var localeMatcher = language.NewMatcher([]language.Tag{language.English, language.Danish})

func isDanish(locale string) bool {
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	_, idx, conf := localeMatcher.Match(tag)
	return idx == 1 && conf >= language.High
}

// Document is a letter ready to be rendered: content already cleaned, with
// the header fields resolved against the job posting.
type Document struct {
	Company string
	Title   string
	Content string
	Date    time.Time
	danish  bool
}

func NewDocument(job *models.JobPosting, letter *models.GeneratedLetter, locale string, date time.Time) Document {
	d := Document{Date: date, danish: isDanish(locale)}
	if job != nil {
		d.Company = strings.TrimSpace(job.Company)
		d.Title = strings.TrimSpace(job.Title)
	}
	if letter != nil {
		d.Content = CleanContent(letter.Content, d.Company, d.Title)
	}
	return d
}

func (d Document) labels() labels {
	if d.danish {
		return danishLabels
	}
	return englishLabels
}

// Header returns the company line and the attention line.
func (d Document) Header() (string, string) {
	l := d.labels()
	company, title := d.Company, d.Title
	if company == "" {
		company = l.company
	}
	if title == "" {
		title = l.position
	}
	return company, fmt.Sprintf(l.att, title)
}

var danishMonths = [...]string{
	"januar", "februar", "marts", "april", "maj", "juni",
	"juli", "august", "september", "oktober", "november", "december",
}

// FormattedDate is "2. januar 2025" for Danish, "January 2, 2025" otherwise.
func (d Document) FormattedDate() string {
	if d.danish {
		return fmt.Sprintf("%d. %s %d", d.Date.Day(), danishMonths[d.Date.Month()-1], d.Date.Year())
	}
	return d.Date.Format("January 2, 2006")
}

var unsafeFileChars = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "\"", "", "\n", " ", "\r", "")

// Filename is "<prefix> - <company> - <title>.<ext>".
func (d Document) Filename(f Format) string {
	l := d.labels()
	company, title := d.Company, d.Title
	if company == "" {
		company = l.company
	}
	if title == "" {
		title = l.filePos
	}
	return unsafeFileChars.Replace(fmt.Sprintf("%s - %s - %s.%s", l.prefix, company, title, f))
}

func (d Document) WordCount() int {
	return WordCount(d.Content)
}

func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Render produces the document bytes in the requested format.
func Render(d Document, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return renderText(d), nil
	case FormatPDF:
		return renderPDF(d)
	case FormatDOCX:
		return renderDOCX(d)
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

func renderText(d Document) []byte {
	company, att := d.Header()
	return []byte(company + "\n" + att + "\n\n" + d.Content)
}

var (
	metaLines  = regexp.MustCompile(`(?m)^(Dato|Date|Til|To|Emne|Subject):.*$`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// CleanContent strips what models tend to repeat from the letter header:
// date/recipient/subject lines, a bare company line, repeated mentions of
// the job title and doubled greetings.
func CleanContent(raw, company, title string) string {
	cleaned := strings.ReplaceAll(raw, "\r\n", "\n")
	cleaned = metaLines.ReplaceAllString(cleaned, "")

	lines := strings.Split(cleaned, "\n")
	out := make([]string, 0, len(lines))
	seenTitle := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if company != "" && trimmed == company {
			continue
		}
		if title != "" && strings.Contains(line, title) {
			if seenTitle {
				continue
			}
			seenTitle = true
		}
		out = append(out, line)
	}
	out = dropDoubledGreeting(out)

	cleaned = strings.Join(out, "\n")
	cleaned = blankLines.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

var greetings = []string{"Kære", "Dear"}

// dropDoubledGreeting removes a greeting line when the next non-empty line
// opens with the same greeting.
func dropDoubledGreeting(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		g := greetingOf(lines[i])
		if g != "" {
			j := i + 1
			for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
				j++
			}
			if j < len(lines) && greetingOf(lines[j]) == g {
				i = j - 1
				continue
			}
		}
		out = append(out, lines[i])
	}
	return out
}

func greetingOf(line string) string {
	line = strings.TrimSpace(line)
	for _, g := range greetings {
		if strings.HasPrefix(line, g) {
			return g
		}
	}
	return ""
}
