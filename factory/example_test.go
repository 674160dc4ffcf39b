package factory_test

import (
	"fmt"

	"github.com/kbukum/modelkit/factory"
	"github.com/kbukum/modelkit/logger"
)

type Greeting interface {
	Text() string
}

type plainGreeting struct{ name string }

func (g plainGreeting) Text() string { return "hello " + g.name }

type loudGreeting struct{ name string }

func (g loudGreeting) Text() string { return "HELLO " + g.name + "!" }

type GreetingProvider interface {
	factory.Provider
	Create(name string) Greeting
}

type plainProvider struct{ factory.Types }

func (plainProvider) Create(name string) Greeting { return plainGreeting{name} }

type loudProvider struct{ factory.Types }

func (loudProvider) Create(name string) Greeting { return loudGreeting{name} }

func Example() {
	reg := factory.NewRegistry(factory.WithIsolation(), factory.WithLogger(logger.NewNop()))

	// Normally declared from the model package's init().
	reg.Declare("example.Greeting", func(r *factory.Registry) error {
		_, err := factory.Register[GreetingProvider](r, "example.Greeting",
			plainProvider{factory.TypesFor[Greeting, plainGreeting]()})
		return err
	})

	greetings := factory.MustLookup[GreetingProvider](reg, "example.Greeting")
	fmt.Println(greetings.Provider().Create("gopher").Text())

	err := greetings.Install(loudProvider{factory.TypesFor[Greeting, loudGreeting]()})
	if err != nil {
		panic(err)
	}
	fmt.Println(greetings.Provider().Create("gopher").Text())
	fmt.Println(greetings.ConcreteType())

	// Output:
	// hello gopher
	// HELLO gopher!
	// factory_test.loudGreeting
}

func ExampleRegistry_Activate() {
	reg := factory.NewRegistry(factory.WithIsolation(), factory.WithLogger(logger.NewNop()))
	greetings := factory.MustRegister[GreetingProvider](reg, "example.Greeting",
		plainProvider{factory.TypesFor[Greeting, plainGreeting]()})

	_ = greetings.Offer("loud", loudProvider{factory.TypesFor[Greeting, loudGreeting]()})
	if err := reg.Activate("example.Greeting", "loud"); err != nil {
		panic(err)
	}

	for _, info := range reg.Families() {
		fmt.Println(info.Key, info.DefaultType, "->", info.ActiveType)
	}

	// Output:
	// example.Greeting factory_test.plainGreeting -> factory_test.loudGreeting
}
