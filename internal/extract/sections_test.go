package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufscan/receipt-processor/constants"
	"github.com/sufscan/receipt-processor/internal/common"
	"github.com/sufscan/receipt-processor/internal/entity"
)

const receiptHTML = `<!DOCTYPE html>
<html><head><title>Провера фискалног рачуна</title></head><body><div>
  <h1>Провера фискалног рачуна</h1>
  <h3>Статус рачуна</h3>
  <table><tr><td>Статус</td><td>Проверен</td></tr></table>
  <h3>Захтев за фискализацију рачуна</h3>
  <table>
    <tr><th>ПИБ</th><td>106884584</td></tr>
    <tr><th>Име продајног места</th><td>Макси 054</td></tr>
    <tr><th>Град</th><td>Београд</td></tr>
  </table>
  <h3>Резултат фискализације рачуна</h3>
  <div>
    <div>Укупан износ: 5.168,00</div>
    <div>Бројач рачуна: 414/1458ПП</div>
    <div>Време сервера: 15.01.2023. 12:03:11</div>
  </div>
  <h3>Спецификација рачуна</h3>
  <pre>Кока Кола 0.5л (Ђ)
2 x 150,00
300,00 Ђ</pre>
</div></body></html>`

func markupDoc(body string) *entity.Document {
	return &entity.Document{
		SourceURL:   "https://suf.purs.gov.rs/v/?vl=abc",
		Body:        []byte(body),
		ContentType: constants.ContentMarkup,
		FetchedAt:   time.Now().UTC(),
	}
}

func sectionByName(t *testing.T, sections []entity.RawSection, name constants.SectionName) entity.RawSection {
	t.Helper()
	for _, s := range sections {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("section %s not found", name)
	return entity.RawSection{}
}

func TestSectionsFullReceipt(t *testing.T) {
	sections, err := Sections(markupDoc(receiptHTML))
	require.NoError(t, err)
	require.Len(t, sections, 4)

	status := sectionByName(t, sections, constants.SectionStatus)
	require.Len(t, status.Fields, 1)
	assert.Equal(t, entity.Field{Label: "Статус", Value: "Проверен"}, status.Fields[0])

	request := sectionByName(t, sections, constants.SectionFiscalizationRequest)
	require.Len(t, request.Fields, 3)
	assert.Equal(t, "ПИБ", request.Fields[0].Label)
	assert.Equal(t, "106884584", request.Fields[0].Value)
	assert.Equal(t, "Макси 054", request.Fields[1].Value)

	result := sectionByName(t, sections, constants.SectionFiscalizationResult)
	require.Len(t, result.Fields, 3)
	assert.Equal(t, entity.Field{Label: "Укупан износ", Value: "5.168,00"}, result.Fields[0])
	// Values containing colons keep everything after the first separator.
	assert.Equal(t, "Време сервера", result.Fields[2].Label)

	journal := sectionByName(t, sections, constants.SectionJournal)
	assert.Contains(t, journal.Body, "Кока Кола 0.5л (Ђ)")
	assert.Contains(t, journal.Body, "2 x 150,00")
}

func TestSectionsPreservesDocumentOrder(t *testing.T) {
	sections, err := Sections(markupDoc(receiptHTML))
	require.NoError(t, err)
	want := []constants.SectionName{
		constants.SectionStatus,
		constants.SectionFiscalizationRequest,
		constants.SectionFiscalizationResult,
		constants.SectionJournal,
	}
	var got []constants.SectionName
	for _, s := range sections {
		got = append(got, s.Name)
	}
	assert.Equal(t, want, got)
}

func TestSectionsUnknownHeadingIgnored(t *testing.T) {
	html := `<html><body>
	<h3>Сасвим ново заглавље</h3>
	<p>future content</p>
	<h3>Спецификација рачуна</h3>
	<pre>Хлеб (Е)
1 x 60,00
60,00 Е</pre>
	</body></html>`

	sections, err := Sections(markupDoc(html))
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, constants.SectionJournal, sections[0].Name)
}

func TestSectionsMissingJournalFails(t *testing.T) {
	html := `<html><body>
	<h3>Статус рачуна</h3>
	<table><tr><td>Статус</td><td>Проверен</td></tr></table>
	</body></html>`

	_, err := Sections(markupDoc(html))
	require.Error(t, err)
	assert.Equal(t, common.KindStructural, common.KindOf(err))
}

func TestSectionsErrorPageFails(t *testing.T) {
	html := `<html><body><h1>Грешка</h1><p>Рачун није пронађен</p></body></html>`
	_, err := Sections(markupDoc(html))
	require.Error(t, err)
	assert.Equal(t, common.KindStructural, common.KindOf(err))
}

func TestSectionsRejectsNonMarkup(t *testing.T) {
	doc := &entity.Document{
		Body:        []byte(`{"status":"ok"}`),
		ContentType: constants.ContentJSON,
	}
	_, err := Sections(doc)
	require.Error(t, err)
	assert.Equal(t, common.KindStructural, common.KindOf(err))
}

func TestSectionsJournalHeadingAlias(t *testing.T) {
	html := `<html><body>
	<h3>Журнал</h3>
	<pre>Млеко 1л (Е)
1 x 120,00
120,00 Е</pre>
	</body></html>`

	sections, err := Sections(markupDoc(html))
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, constants.SectionJournal, sections[0].Name)
	assert.Contains(t, sections[0].Body, "Млеко 1л (Е)")
}
