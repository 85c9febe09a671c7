// Package report renders a finalized session into a paginated PDF. Render
// is a pure function of its inputs: fixed page geometry, fixed fonts, fixed
// creation date, so identical inputs produce byte-identical documents.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"valuecards/internal/fault"
	"valuecards/internal/model"
)

const (
	margin     = 40.0
	footerRoom = 50.0
	lineHeight = 13.0
)

type rgb struct{ r, g, b int }

var (
	colPrimary      = rgb{45, 90, 61}
	colPrimaryLight = rgb{240, 247, 242}
	colAccent       = rgb{74, 124, 89}
	colText         = rgb{26, 26, 26}
	colTextMuted    = rgb{85, 85, 85}
	colTextLight    = rgb{153, 153, 153}
	colChipBg       = rgb{232, 237, 233}
	colBorder       = rgb{224, 224, 224}
	colPromptText   = rgb{68, 68, 68}
	colResponseBar  = rgb{204, 204, 204}
)

// Render produces the values report. Core cards and chips keep the order of
// the input slices; callers sort beforehand if they want alphabetical output.
func Render(userName *string, coreValues, otherHighValues []model.Selection, reflections map[string]string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	// Pin the embedded metadata so output depends only on the inputs.
	pdf.SetCreationDate(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	pdf.SetCatalogSort(true)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - margin*2
	y := margin

	checkPage := func(needed float64) {
		if y+needed > pageH-footerRoom {
			pdf.AddPage()
			y = margin
		}
	}
	wrap := func(text string, maxWidth, size float64) []string {
		pdf.SetFontSize(size)
		return pdf.SplitText(text, maxWidth)
	}
	setColor := func(c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
	setFill := func(c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
	setDraw := func(c rgb) { pdf.SetDrawColor(c.r, c.g, c.b) }
	textLines := func(lines []string, x, top float64) {
		for i, line := range lines {
			pdf.Text(x, top+float64(i)*lineHeight, line)
		}
	}

	// Header.
	pdf.SetFont("Helvetica", "B", 22)
	setColor(colPrimary)
	title := "Your Core Values"
	if userName != nil && *userName != "" {
		title = *userName + "'s Core Values"
	}
	pdf.Text(margin, y+22, title)
	y += 30

	pdf.SetFont("Helvetica", "", 10)
	setColor(colTextMuted)
	pdf.Text(margin, y+10, "Purpose Built Values Card Exercise")
	y += 18

	setDraw(colAccent)
	pdf.SetLineWidth(2)
	pdf.Line(margin, y, pageW-margin, y)
	y += 20

	// Core values cards.
	pdf.SetFont("Helvetica", "B", 14)
	setColor(colPrimary)
	pdf.Text(margin, y+14, fmt.Sprintf("Core Values (%d)", len(coreValues)))
	y += 26

	for i := range coreValues {
		v := &coreValues[i]
		label := v.DisplayLabel()
		if v.IsCustom() {
			label += " (Custom)"
		}
		pdf.SetFont("Helvetica", "", 10)
		descLines := wrap(v.DisplayDescription(), contentW-26, 10)
		cardH := 16 + float64(len(descLines))*lineHeight + 10

		checkPage(cardH)

		setFill(colPrimaryLight)
		pdf.RoundedRect(margin, y, contentW, cardH, 3, "1234", "F")
		setFill(colAccent)
		pdf.Rect(margin, y, 3, cardH, "F")

		pdf.SetFont("Helvetica", "B", 12)
		setColor(colText)
		pdf.Text(margin+12, y+14, label)

		pdf.SetFont("Helvetica", "", 10)
		setColor(colTextMuted)
		textLines(descLines, margin+12, y+28)

		y += cardH + 8
	}

	// Other very important values, as wrapped chips.
	if len(otherHighValues) > 0 {
		checkPage(60)
		y += 8
		pdf.SetFont("Helvetica", "B", 14)
		setColor(colPrimary)
		pdf.Text(margin, y+14, fmt.Sprintf("Other Very Important Values (%d)", len(otherHighValues)))
		y += 28

		chipX := margin
		const chipH, chipPadX, chipGap = 20.0, 12.0, 6.0

		pdf.SetFont("Helvetica", "", 10)
		for i := range otherHighValues {
			label := otherHighValues[i].DisplayLabel()
			chipW := pdf.GetStringWidth(label) + chipPadX*2

			if chipX+chipW > pageW-margin {
				chipX = margin
				y += chipH + chipGap
				checkPage(chipH + chipGap)
			}

			setFill(colChipBg)
			pdf.RoundedRect(chipX, y, chipW, chipH, 10, "1234", "F")
			setColor(colText)
			pdf.Text(chipX+chipPadX, y+13, label)

			chipX += chipW + chipGap
		}
		y += chipH + 12
	}

	// Reflection prompts.
	checkPage(60)
	y += 8
	pdf.SetFont("Helvetica", "B", 14)
	setColor(colPrimary)
	pdf.Text(margin, y+14, "Reflection Prompts")
	y += 28

	for _, prompt := range model.ReflectionPrompts {
		pdf.SetFont("Helvetica", "B", 10)
		promptLines := wrap(prompt.Prompt, contentW, 10)

		response := reflections[prompt.ID]
		var responseLines []string
		if response != "" {
			pdf.SetFont("Helvetica", "", 10)
			responseLines = wrap(response, contentW-12, 10)
		} else {
			responseLines = []string{"No response yet"}
		}

		total := float64(len(promptLines)+len(responseLines))*lineHeight + 12
		checkPage(total)

		pdf.SetFont("Helvetica", "B", 10)
		setColor(colPromptText)
		textLines(promptLines, margin, y+10)
		y += float64(len(promptLines))*lineHeight + 4

		if response != "" {
			pdf.SetFont("Helvetica", "", 10)
			setColor(colText)
		} else {
			pdf.SetFont("Helvetica", "I", 10)
			setColor(colTextLight)
		}

		responseH := float64(len(responseLines)) * lineHeight
		setDraw(colResponseBar)
		pdf.SetLineWidth(1)
		pdf.Line(margin+6, y+2, margin+6, y+responseH+4)

		textLines(responseLines, margin+12, y+10)
		y += responseH + 14
	}

	// Footer.
	setDraw(colBorder)
	pdf.SetLineWidth(0.5)
	pdf.Line(margin, pageH-40, pageW-margin, pageH-40)
	pdf.SetFont("Helvetica", "", 9)
	setColor(colTextLight)
	footer := "Purpose Built Values Cards"
	pdf.Text(pageW/2-pdf.GetStringWidth(footer)/2, pageH-26, footer)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w: %w", fault.ErrRender, err)
	}
	return buf.Bytes(), nil
}
