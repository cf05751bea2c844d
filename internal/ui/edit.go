package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/soniadragulescu/beerstore/internal/beer"
	"github.com/soniadragulescu/beerstore/internal/photo"
	"github.com/soniadragulescu/beerstore/internal/state"
)

// Edit form field indexes. fieldFavorite is a toggle, the rest are inputs.
const (
	fieldName = iota
	fieldPrice
	fieldPhoto
	fieldLocation
	fieldFavorite
	fieldCount
)

type editForm struct {
	item     beer.Item
	inputs   [fieldFavorite]textinput.Model
	favorite bool
	focus    int
	busy     bool
	err      string
}

func newEditForm(item beer.Item) editForm {
	item = item.Clone()

	name := textinput.New()
	name.Prompt = "Name:     "
	name.CharLimit = 80
	name.SetValue(item.Name)

	price := textinput.New()
	price.Prompt = "Price:    "
	price.CharLimit = 16
	if item.Persisted() || item.Price != 0 {
		price.SetValue(strconv.FormatFloat(item.Price, 'f', -1, 64))
	}

	pic := textinput.New()
	pic.Prompt = "Photo:    "
	pic.Placeholder = "path to a picture"
	if item.Photo != nil {
		pic.SetValue(item.Photo.Filepath)
	}

	loc := textinput.New()
	loc.Prompt = "Location: "
	loc.Placeholder = "lat,lng"
	if item.Location != nil {
		loc.SetValue(item.Location.String())
	}

	f := editForm{
		item:     item,
		inputs:   [fieldFavorite]textinput.Model{name, price, pic, loc},
		favorite: item.Favorite,
	}
	f.inputs[fieldName].Focus()
	return f
}

func (f *editForm) setFocus(i int) {
	if f.focus < fieldFavorite {
		f.inputs[f.focus].Blur()
	}
	f.focus = (i + fieldCount) % fieldCount
	if f.focus < fieldFavorite {
		f.inputs[f.focus].Focus()
	}
}

func (f *editForm) update(msg tea.Msg) tea.Cmd {
	if f.focus >= fieldFavorite {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// draft is the validated form content.
type draft struct {
	item      beer.Item
	photoPath string // non-empty when a new picture must be captured
}

// build validates the form and produces the item to save. A photo path that
// differs from the current one is returned for capture.
func (f editForm) build(now time.Time) (draft, error) {
	it := f.item.Clone()
	it.Name = strings.TrimSpace(f.inputs[fieldName].Value())
	if it.Name == "" {
		return draft{}, errors.New("name is required")
	}

	it.Price = 0
	if raw := strings.TrimSpace(f.inputs[fieldPrice].Value()); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price < 0 {
			return draft{}, fmt.Errorf("price %q is not a valid amount", raw)
		}
		it.Price = price
	}
	it.Favorite = f.favorite

	var d draft
	switch pic := strings.TrimSpace(f.inputs[fieldPhoto].Value()); {
	case pic == "":
		it.Photo = nil
	case it.Photo == nil || pic != it.Photo.Filepath:
		d.photoPath = pic
	}

	switch loc := strings.TrimSpace(f.inputs[fieldLocation].Value()); {
	case loc == "":
		it.Location = nil
	case it.Location == nil || loc != it.Location.String():
		lat, lng, err := beer.ParseCoordinates(loc)
		if err != nil {
			return draft{}, err
		}
		it.Location = beer.NewLocation(lat, lng, 0, now)
	}

	d.item = it.Stamp(now)
	return d, nil
}

func (m Model) openEdit(item beer.Item) (tea.Model, tea.Cmd) {
	m.view = ViewEdit
	m.edit = newEditForm(item)
	m.status = ""
	cmds := []tea.Cmd{textinput.Blink}
	if m.gallery != nil && item.Photo != nil && item.Photo.WebviewPath != "" {
		cmds = append(cmds, storePhotoCmd(m.ctx, m.gallery, *item.Photo))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.edit.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		m.view = ViewList
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.edit.setFocus(m.edit.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.edit.setFocus(m.edit.focus - 1)
		return m, nil
	case key.Matches(msg, m.keys.Toggle) && m.edit.focus == fieldFavorite:
		m.edit.favorite = !m.edit.favorite
		return m, nil
	case key.Matches(msg, m.keys.Save),
		key.Matches(msg, m.keys.Submit) && m.edit.focus == fieldFavorite:
		return m.submitEdit()
	case key.Matches(msg, m.keys.Delete):
		if !m.edit.item.Persisted() || m.syncer == nil {
			m.view = ViewList
			return m, nil
		}
		m.edit.busy = true
		m.edit.err = ""
		return m, deleteCmd(m.ctx, m.syncer, m.gallery, m.edit.item)
	case key.Matches(msg, m.keys.Submit):
		m.edit.setFocus(m.edit.focus + 1)
		return m, nil
	}
	return m, m.edit.update(msg)
}

func (m Model) submitEdit() (tea.Model, tea.Cmd) {
	if m.syncer == nil {
		m.edit.err = "Not connected"
		return m, nil
	}
	d, err := m.edit.build(m.now())
	if err != nil {
		m.edit.err = err.Error()
		return m, nil
	}
	if d.photoPath != "" && m.gallery == nil {
		m.edit.err = "Photos are not available"
		return m, nil
	}
	m.edit.busy = true
	m.edit.err = ""
	return m, saveCmd(m.ctx, m.syncer, m.gallery, d)
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	m.edit.busy = false
	if m.store != nil {
		m.applySnapshot(m.store.Snapshot())
	}
	if msg.err != nil {
		m.edit.err = errorText(msg.err, state.SaveFallback)
		return m, nil
	}
	if m.view == ViewEdit {
		m.view = ViewList
	}
	m.status = "Saved " + msg.item.Name
	return m, nil
}

func (m Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	m.edit.busy = false
	if m.store != nil {
		m.applySnapshot(m.store.Snapshot())
	}
	if msg.err != nil {
		m.edit.err = errorText(msg.err, state.DeleteFallback)
		return m, nil
	}
	if m.view == ViewEdit {
		m.view = ViewList
	}
	m.status = "Deleted"
	return m, nil
}

func (m Model) renderEdit() string {
	styles := m.theme.Styles()

	title := "New item"
	if m.edit.item.Persisted() {
		title = "Edit item"
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(title))
	if m.edit.item.CreationDate != "" {
		b.WriteString(styles.FaintText.Render("  created " + m.edit.item.CreationDate))
	}
	b.WriteString("\n\n")
	for _, in := range m.edit.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	fav := "[ ] Favorite"
	if m.edit.favorite {
		fav = "[x] Favorite"
	}
	if m.edit.focus == fieldFavorite {
		b.WriteString(styles.Focused.Render(fav))
	} else {
		b.WriteString(styles.Text.Render(fav))
	}
	b.WriteString("\n\n")

	switch {
	case m.edit.busy && m.snapshot.Deleting:
		b.WriteString(styles.MutedText.Render("Deleting..."))
	case m.edit.busy:
		b.WriteString(styles.MutedText.Render("Saving..."))
	case m.edit.err != "":
		b.WriteString(styles.DangerText.Render(m.edit.err))
	}
	return styles.Panel.Render(b.String())
}

func errorText(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func saveCmd(ctx context.Context, s ItemSyncer, g *photo.Gallery, d draft) tea.Cmd {
	return func() tea.Msg {
		item := d.item
		if d.photoPath != "" {
			p, err := g.Take(ctx, photo.FileCamera{Path: d.photoPath})
			if err != nil {
				return savedMsg{err: err}
			}
			item.Photo = &p
		}
		saved, err := s.Save(ctx, item)
		return savedMsg{item: saved, err: err}
	}
}

func deleteCmd(ctx context.Context, s ItemSyncer, g *photo.Gallery, item beer.Item) tea.Cmd {
	return func() tea.Msg {
		if err := s.Delete(ctx, item); err != nil {
			return deletedMsg{err: err}
		}
		if g != nil && item.Photo != nil {
			// The item is gone on the server; a leftover file only wastes space.
			_ = g.Delete(ctx, *item.Photo)
		}
		return deletedMsg{}
	}
}

func storePhotoCmd(ctx context.Context, g *photo.Gallery, p beer.Photo) tea.Cmd {
	return func() tea.Msg {
		return photoMsg{err: g.WriteFromServer(ctx, p)}
	}
}
