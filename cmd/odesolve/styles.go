package main

import "github.com/charmbracelet/lipgloss"

var (
	label = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Width(8)
	green = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)
