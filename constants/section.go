package constants

// SectionName is the canonical identifier of a top-level receipt section.
type SectionName string

// Stable values (these exact strings appear as section keys in stored receipts).
const (
	SectionStatus               SectionName = "status"
	SectionFiscalizationRequest SectionName = "fiscalization_request"
	SectionFiscalizationResult  SectionName = "fiscalization_result"
	SectionJournal              SectionName = "journal"
)

// HeadingLabels maps the Cyrillic heading text rendered by the verification
// page to its canonical section name. Headings not present here are skipped
// during extraction.
var HeadingLabels = map[string]SectionName{
	"Статус рачуна":                      SectionStatus,
	"Захтев за фискализацију рачуна":     SectionFiscalizationRequest,
	"Резултат фискализације рачуна":      SectionFiscalizationResult,
	"Спецификација рачуна":               SectionJournal,
	"Журнал":                             SectionJournal,
}
