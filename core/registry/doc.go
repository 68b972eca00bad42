// Package registry maps task titles to executable handlers. Registration is
// compile-time wiring done in main; resolution happens per claimed message.
// An unknown title is a task-level failure that follows the retry path, never
// a process failure.
//
// # Registering Handlers
//
//	reg := registry.New()
//	reg.Register(
//		registry.Echo(),
//		registry.Sleep(),
//		registry.NewJSONFunc("send_email", func(ctx context.Context, args emailArgs) (any, error) {
//			return nil, mailer.Send(ctx, args.To, args.Subject)
//		}),
//	)
//
// # Results
//
// Whatever a handler returns is flattened to a string by FormatResult: a
// Messager contributes its message, maps serialize to JSON, strings pass
// through, nil stores empty.
package registry
