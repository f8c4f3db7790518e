package channel

import (
	"context"
	"encoding/json"

	"github.com/ottobit/simbridge/pkg/messages"
)

// LoadMap asks the simulator to load a map and waits for the acknowledgment.
func (c *Channel) LoadMap(ctx context.Context, mapKey string) error {
	return c.send(ctx, messages.MessageTypeLoadMap, &messages.LoadMapData{MapKey: mapKey})
}

// RunProgram submits a compiled program for execution.
func (c *Channel) RunProgram(ctx context.Context, program *messages.ProgramData) error {
	return c.send(ctx, messages.MessageTypeRunProgram, &messages.RunProgramData{Program: program})
}

// PauseProgram asks the simulator to pause the current run.
func (c *Channel) PauseProgram(ctx context.Context) error {
	return c.send(ctx, messages.MessageTypePauseProgram, nil)
}

// StopProgram asks the simulator to stop the current run. The request is
// advisory; the simulator must cooperate.
func (c *Channel) StopProgram(ctx context.Context) error {
	return c.send(ctx, messages.MessageTypeStopProgram, nil)
}

// GetStatus requests and returns the simulator's current status.
func (c *Channel) GetStatus(ctx context.Context) (*messages.StatusData, error) {
	msg, err := messages.New(messages.MessageTypeGetStatus, nil, c.config.Source)
	if err != nil {
		return nil, err
	}

	reply, err := c.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	status := &messages.StatusData{}
	if err := json.Unmarshal(reply.Data, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (c *Channel) send(ctx context.Context, msgType messages.MessageType, data interface{}) error {
	msg, err := messages.New(msgType, data, c.config.Source)
	if err != nil {
		return err
	}
	_, err = c.SendMessage(ctx, msg)
	return err
}
