// Package coach defines the FitTelligence team: five personas (reception,
// body scanner, personal trainer, nutritionist and head coach), the client
// profile they work from, the prompts that brief each persona, and the
// sequential pipeline that turns a profile into an integrated program.
package coach
