package rawhttp

import (
	"context"
	"fmt"
)

func ExampleClient() {
	cl := &Client{}
	s, err := cl.CtxSend(context.Background(), &Request{
		Method: "GET",
		URL:    "http://www.google.com/?a=b",
		Header: RawHeaders{
			{"Host", "www.google.com"},
			{"Accept", "*/*"},
			{"Connection", "close"},
		},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer s.Close()
	for {
		ev, err := s.Next(context.Background())
		if err != nil {
			fmt.Println(err)
			return
		}
		switch ev := ev.(type) {
		case ResponseHead:
			fmt.Println(ev.StatusCode, ev.Status)
		case BodyPart:
			fmt.Print(string(ev.Data))
		case ResponseEnd:
			return
		}
	}
}
