package main

import "github.com/charmbracelet/lipgloss"

type theme struct {
	user      lipgloss.Style
	assistant lipgloss.Style
	meta      lipgloss.Style
	prompt    lipgloss.Style
	warn      lipgloss.Style
	info      lipgloss.Style
}

func themeFor(dark bool) theme {
	if dark {
		return theme{
			user:      lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE")).Bold(true),
			assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true),
			meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
			prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE")).Bold(true),
			warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
			info:      lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		}
	}
	return theme{
		user:      lipgloss.NewStyle().Foreground(lipgloss.Color("#0E7490")).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#6D28D9")).Bold(true),
		meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563")),
		prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("#0E7490")).Bold(true),
		warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("#B45309")),
		info:      lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
	}
}
