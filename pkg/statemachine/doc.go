// Package statemachine implements a small generic finite state machine used to
// track multi-step flows such as the OAuth1a sign-in handshake.
//
//	m := statemachine.MustNew[State, Event](Idle,
//		statemachine.WithTransition[State, Event](Start, Running, Idle),
//		statemachine.WithTransition[State, Event](Stop, Idle, Running),
//	)
//	_, err := m.Fire(Start)
package statemachine
