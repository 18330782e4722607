package gallery

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up", "down", "left", "right", "enter":
		types := map[string]tea.KeyType{
			"up": tea.KeyUp, "down": tea.KeyDown,
			"left": tea.KeyLeft, "right": tea.KeyRight,
			"enter": tea.KeyEnter,
		}
		return tea.KeyMsg{Type: types[k]}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func pages(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a'+i)) + ".png"
	}
	return out
}

func TestCursorAndPaging(t *testing.T) {
	m := New()
	m.SetPictures(pages(12))

	if cur, _ := m.Current(); cur != "a.png" {
		t.Fatalf("initial current = %q", cur)
	}

	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("down"))
	if cur, _ := m.Current(); cur != "c.png" {
		t.Errorf("after two down = %q", cur)
	}

	m, _ = m.Update(keyMsg("right"))
	if cur, _ := m.Current(); cur != "i.png" {
		t.Errorf("second page start = %q", cur)
	}

	// Second page holds 4 items; the cursor must not run past them.
	for i := 0; i < 10; i++ {
		m, _ = m.Update(keyMsg("down"))
	}
	if cur, _ := m.Current(); cur != "l.png" {
		t.Errorf("second page end = %q", cur)
	}
}

func TestOpenSinglePageCarriesShelf(t *testing.T) {
	m := New()
	m.SetPictures(pages(3))
	m, _ = m.Update(keyMsg("down"))

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter should produce a command")
	}
	open, ok := cmd().(OpenMsg)
	if !ok {
		t.Fatalf("cmd() = %T, want OpenMsg", cmd())
	}
	if open.Story {
		t.Error("page mode open marked as story")
	}
	if len(open.Pages) != 3 || open.Index != 1 {
		t.Errorf("open = %+v", open)
	}
}

func TestStorySelectionOrderAndCap(t *testing.T) {
	m := New()
	m.SetStory(true)
	m.SetPictures(pages(6))

	// Pick d, then a, then b, then c; the fifth pick must be refused.
	for i := 0; i < 3; i++ {
		m, _ = m.Update(keyMsg("down"))
	}
	m, _ = m.Update(keyMsg("space"))
	for i := 0; i < 3; i++ {
		m, _ = m.Update(keyMsg("up"))
	}
	m, _ = m.Update(keyMsg("space"))
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("space"))
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("space"))
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("space"))

	got := m.Selected()
	want := []string{"d.png", "a.png", "b.png", "c.png"}
	if len(got) != len(want) {
		t.Fatalf("selected = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("selected = %v, want %v", got, want)
		}
	}

	_, cmd := m.Update(keyMsg("enter"))
	open := cmd().(OpenMsg)
	if !open.Story || len(open.Pages) != 4 || open.Pages[0] != "d.png" {
		t.Errorf("open = %+v", open)
	}
}

func TestSpaceTogglesOff(t *testing.T) {
	m := New()
	m.SetStory(true)
	m.SetPictures(pages(2))

	m, _ = m.Update(keyMsg("space"))
	m, _ = m.Update(keyMsg("space"))
	if got := m.Selected(); len(got) != 0 {
		t.Errorf("selected after toggle = %v", got)
	}
}

func TestSetPicturesDropsVanishedPicks(t *testing.T) {
	m := New()
	m.SetStory(true)
	m.SetPictures([]string{"1.png", "2.png"})
	m, _ = m.Update(keyMsg("space"))
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("space"))

	m.SetPictures([]string{"2.png"})
	got := m.Selected()
	if len(got) != 1 || got[0] != "2.png" {
		t.Errorf("selected after refresh = %v", got)
	}
}

func TestViewEmptyShelf(t *testing.T) {
	m := New()
	m.SetPictures(nil)
	if !strings.Contains(m.View(), "No pictures yet") {
		t.Error("empty shelf message missing")
	}
}

func TestViewShowsPickOrder(t *testing.T) {
	m := New()
	m.SetStory(true)
	m.SetPictures(pages(3))
	m, _ = m.Update(keyMsg("space"))
	v := m.View()
	if !strings.Contains(v, "a.png") || !strings.Contains(v, "1 of 4 picked") {
		t.Errorf("view missing pick state:\n%s", v)
	}
}
