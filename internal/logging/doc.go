// Package logging assembles structured slog loggers for the backend.
//
// Every line goes to stderr (stdout carries the JSON event stream and must
// never see log text). The console format renders
// "[scope] [2006-01-02T15:04:05.000Z] message key=value", where scope is the
// component attribute set through NewComponentLogger. A JSON format is
// available for machine collection, and either format can be teed into a log
// file.
//
// Context helpers stamp request IDs, operation names, and work item positions
// onto lines so one batch can be followed across components.
package logging
