package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

const profileHelp = "  enter: select | ctrl+c: quit\n"

type profileMenu struct {
	choices []string
	current int
	chosen  string
}

func (p profileMenu) Init() tea.Cmd {
	return nil
}

func (p profileMenu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "up", "k":
		if p.current > 0 {
			p.current--
		}
	case "down", "j":
		if p.current < len(p.choices)-1 {
			p.current++
		}
	case "enter":
		p.chosen = p.choices[p.current]
		return p, tea.Quit
	case "ctrl+c", "q":
		return p, tea.Quit
	}
	return p, nil
}

func (p profileMenu) View() string {
	out := cyanStyle.Render("\n  Profiles\n")
	for i, choice := range p.choices {
		if i == p.current {
			out += selectStyle.Render("> "+choice) + "\n"
		} else {
			out += "  " + choice + "\n"
		}
	}
	out += grayStyle.Render(profileHelp)
	return out
}

// ShowProfileMenu displays the profile selection menu to the user and returns
// their choice. If no choice was picked, then the returned string is empty.
func ShowProfileMenu(choices []string) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("no configuration profiles found - make one")
	}
	model, err := tea.NewProgram(profileMenu{choices: choices}).StartReturningModel()
	if err != nil {
		return "", err
	}
	return model.(profileMenu).chosen, nil
}
