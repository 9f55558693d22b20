package catalog

import (
	"strings"
	"testing"

	"avgrunnen/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneSheet = `ID,Title,Text,Type,Player Id,Act 1,act2,ACT 3
1,Hjemkomst,Du kommer hjem,goal,Astrid,TRUE,,
2,Brevet,Et brev,relationship,,x,yes,
3,Stormen,Det blåser,,,,,1
,Uten id,mangler,,,TRUE,,
4,,uten tittel,,,TRUE,,
1,Duplikat,samme id,,,TRUE,,
,,,,,,,
`

func TestParseCardsNormalizesHeaders(t *testing.T) {
	cards, rowErrs, err := ParseCards(strings.NewReader(sceneSheet))
	require.NoError(t, err)
	require.Len(t, cards, 3)

	assert.Equal(t, domain.Card{ID: "1", Title: "Hjemkomst", Text: "Du kommer hjem", Type: "goal", PlayerID: "Astrid", Acts: []int{1}}, cards[0])
	assert.Equal(t, []int{1, 2}, cards[1].Acts)
	assert.Equal(t, []int{3}, cards[2].Acts)

	require.Len(t, rowErrs, 3)
	assert.Equal(t, 5, rowErrs[0].Line)
	assert.Contains(t, rowErrs[2].Reason, "duplicate id 1")
}

func TestParseCardsRequiresColumns(t *testing.T) {
	_, _, err := ParseCards(strings.NewReader("id,title\n1,x\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseCardsEmpty(t *testing.T) {
	_, _, err := ParseCards(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyCatalog)

	_, rowErrs, err := ParseCards(strings.NewReader("id,title,text\n,,x\n"))
	require.ErrorIs(t, err, ErrEmptyCatalog)
	assert.Len(t, rowErrs, 1)
}

func TestValidatePool(t *testing.T) {
	events := []domain.Card{{ID: "e1"}}
	require.NoError(t, ValidatePool(domain.PoolEvent, events))
	require.ErrorIs(t, ValidatePool(domain.PoolEvent, nil), ErrEmptyCatalog)

	scenes := []domain.Card{{ID: "s1", Acts: []int{1, 2}}}
	require.ErrorIs(t, ValidatePool(domain.PoolScene, scenes), ErrEmptyAct)
	scenes = append(scenes, domain.Card{ID: "s2", Acts: []int{3}})
	require.NoError(t, ValidatePool(domain.PoolScene, scenes))
}

func TestParseGuidance(t *testing.T) {
	sheet := "Type,Act,Text\ngoal,1,Hva vil du?\nrelationship,2,Hvem stoler du på?\ngoal,I veien for Endringen,Noe står i veien\ngoal,7,feil\n"
	lines, rowErrs, err := ParseGuidance(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, domain.Guidance{Type: "goal", Act: 1, Text: "Hva vil du?"}, lines[0])
	assert.True(t, lines[2].Obstacle())
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 5, rowErrs[0].Line)
}
