package cmd

import (
	"log/slog"

	"github.com/kikukafandi/flowlink/pkg/actions/createtask"
	"github.com/kikukafandi/flowlink/pkg/actions/sendemail"
	"github.com/kikukafandi/flowlink/pkg/actions/sendmessage"
	"github.com/kikukafandi/flowlink/pkg/registry"
)

// NewRegistry registers the built-in capability set against its
// collaborators.
func NewRegistry(
	logger *slog.Logger,
	channel sendmessage.Channel,
	sender sendmessage.Sender,
	tasks createtask.TaskCreator,
	mailer sendemail.Mailer,
) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterAction(sendmessage.NewActionFactory(channel, sender))
	reg.RegisterAction(createtask.NewActionFactory(tasks))
	reg.RegisterAction(sendemail.NewActionFactory(mailer))

	return reg
}
