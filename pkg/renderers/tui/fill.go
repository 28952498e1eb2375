package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine/pkg/controls"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Fill prompts for every visible field of form, submits, and re-prompts the
// fields that come back with errors. Answers go through each field's control
// into engine.Change, so values are shaped exactly as the HTML controls would
// shape them. Visibility is re-evaluated after every answer.
//
// A failed save asks whether to retry. Fill stops with ErrGaveUp after the
// configured number of submit attempts.
func (r *Renderer) Fill(ctx context.Context, form *engine.Form) (engine.Result, error) {
	if form == nil {
		return engine.Result{}, errors.New("tui: form is required")
	}
	if form.Mode() == engine.ModeView {
		return engine.Result{}, engine.ErrReadOnly
	}

	state := newFillState(form)
	if err := r.askPending(ctx, form, state); err != nil {
		return engine.Result{}, err
	}

	var last engine.Result
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := form.Submit(ctx)
		if err != nil {
			return result, err
		}
		last = result
		r.logger.Debug("fill submit",
			zap.String("schema", form.Schema().ID),
			zap.Int("attempt", attempt),
			zap.String("outcome", string(result.Outcome)),
		)

		switch result.Outcome {
		case engine.OutcomeSaved:
			r.info(ctx, r.theme.InfoPrefix+"Saved.")
			return result, nil
		case engine.OutcomeInvalid:
			r.info(ctx, r.theme.ErrorPrefix+fmt.Sprintf("%d field(s) need attention.", len(result.Errors)))
			for _, field := range state.withErrors() {
				if err := r.ask(ctx, form, state, field); err != nil {
					return result, err
				}
			}
			if err := r.askPending(ctx, form, state); err != nil {
				return result, err
			}
		case engine.OutcomeFailed:
			r.info(ctx, r.theme.ErrorPrefix+result.Message)
			if attempt == r.maxAttempts {
				break
			}
			retry, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Retry?", Default: true})
			if err != nil {
				return result, err
			}
			if !retry {
				return result, nil
			}
		}
	}
	return last, ErrGaveUp
}

// askPending prompts until no visible field is left unasked.
func (r *Renderer) askPending(ctx context.Context, form *engine.Form, state *fillState) error {
	for {
		pending := state.pending()
		if len(pending) == 0 {
			return nil
		}
		for _, field := range pending {
			if !form.IsFieldVisible(field.Name) {
				continue
			}
			if err := r.ask(ctx, form, state, field); err != nil {
				return err
			}
		}
	}
}

func (r *Renderer) ask(ctx context.Context, form *engine.Form, state *fillState, field schema.Field) error {
	state.markAnswered(field.Name)
	control, err := form.Control(field.Name)
	if errors.Is(err, controls.ErrNoWidget) {
		r.logger.Warn("tui: skipping field without control",
			zap.String("field", field.Name),
			zap.String("kind", string(field.Type)),
		)
		return nil
	}
	if err != nil {
		return err
	}
	if control.Error != "" {
		r.info(ctx, r.theme.ErrorPrefix+control.Error)
	}
	return r.prompt(ctx, control)
}

func (r *Renderer) prompt(ctx context.Context, c *controls.Control) error {
	label := r.theme.PromptPrefix + promptLabel(c)
	help := helpText(c)

	switch c.Widget {
	case controls.WidgetSwitch, controls.WidgetCheckbox:
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: c.Checked(), Help: help})
		if err != nil {
			return err
		}
		c.SetChecked(answer)

	case controls.WidgetSelect:
		options := c.Options()
		labels := make([]string, 0, len(options)+1)
		defaultIdx := 0
		if !c.Required {
			labels = append(labels, "(none)")
		}
		offset := len(labels)
		for i, opt := range options {
			labels = append(labels, opt.Label)
			if opt.Selected {
				defaultIdx = i + offset
			}
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: labels, DefaultIndex: defaultIdx, Help: help})
		if err != nil {
			return err
		}
		switch {
		case idx < offset:
			c.Select("")
		case idx-offset < len(options):
			c.Select(options[idx-offset].Value)
		}

	case controls.WidgetMultiSelect:
		options := c.Options()
		labels := make([]string, 0, len(options))
		var defaults []int
		for i, opt := range options {
			labels = append(labels, opt.Label)
			if opt.Selected {
				defaults = append(defaults, i)
			}
		}
		picked, err := r.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: labels, Defaults: defaults, Help: help})
		if err != nil {
			return err
		}
		values := make([]string, 0, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(options) {
				values = append(values, options[idx].Value)
			}
		}
		c.SetSelected(values)

	case controls.WidgetRating:
		stars := c.Stars()
		labels := make([]string, 0, len(stars)+1)
		labels = append(labels, "0")
		for _, n := range stars {
			labels = append(labels, strings.Repeat("★", n))
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: labels, DefaultIndex: c.Rating(), Help: help})
		if err != nil {
			return err
		}
		c.SetRating(idx)

	case controls.WidgetTextarea:
		text, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: c.Text(), Help: help})
		if err != nil {
			return err
		}
		c.SetText(text)

	case controls.WidgetJSON:
		text, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: c.Text(), Help: help})
		if err != nil {
			return err
		}
		c.SetJSON(text)

	case controls.WidgetCoordinates:
		lat, err := r.driver.Input(ctx, InputConfig{Message: label + " latitude", Default: c.Latitude(), Help: help, Validator: optionalNumber})
		if err != nil {
			return err
		}
		c.SetLatitude(lat)
		lng, err := r.driver.Input(ctx, InputConfig{Message: label + " longitude", Default: c.Longitude(), Help: help, Validator: optionalNumber})
		if err != nil {
			return err
		}
		c.SetLongitude(lng)

	case controls.WidgetImage, controls.WidgetFile:
		path, err := r.driver.Input(ctx, InputConfig{Message: label + " (path, blank keeps current)", Help: help})
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil
		}
		data, err := r.readFile(path)
		if err != nil {
			r.info(ctx, r.theme.ErrorPrefix+fmt.Sprintf("cannot read %s: %v", path, err))
			return nil
		}
		before, _ := c.Value().(string)
		c.SetFile("", data)
		if after, _ := c.Value().(string); after == before {
			r.info(ctx, r.theme.ErrorPrefix+fmt.Sprintf("%s is not an accepted file type (%s)", path, c.Accept))
		}

	case controls.WidgetTags, controls.WidgetArray:
		text, err := r.driver.Input(ctx, InputConfig{Message: label + " (comma separated)", Default: c.Text(), Help: help})
		if err != nil {
			return err
		}
		c.SetText(text)

	default:
		cfg := InputConfig{Message: label, Default: c.Text(), Help: help, Placeholder: c.Placeholder, Secret: c.Kind == schema.KindPassword}
		if c.Widget.IsNumeric() {
			cfg.Validator = optionalNumber
		}
		text, err := r.driver.Input(ctx, cfg)
		if err != nil {
			return err
		}
		c.SetText(text)
	}
	return nil
}

func (r *Renderer) info(ctx context.Context, msg string) {
	if err := r.driver.Info(ctx, msg); err != nil {
		r.logger.Debug("tui: info failed", zap.Error(err))
	}
}

func helpText(c *controls.Control) string {
	parts := make([]string, 0, 2)
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	if c.Tooltip != "" {
		parts = append(parts, c.Tooltip)
	}
	return strings.Join(parts, " ")
}

func optionalNumber(answer any) error {
	text, _ := answer.(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}
