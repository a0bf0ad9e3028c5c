// Package agent contains the model driven agent used for every FitTelligence
// persona.
//
// A ModelAgent couples a model with an instruction and a tool set and runs a
// single agent flow per turn. Events produced by the flow are forwarded to
// the run context; the runner persists them and resumes the agent. Error
// events end the turn and are returned from Run as a *RunError.
package agent
