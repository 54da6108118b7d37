// A thin interactive client: lines typed on stdin go to the server, lines
// from the server go to stdout. All protocol knowledge lives server-side.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"
)

func main() {
	host := flag.String("host", "localhost", "server host")
	port := flag.IntP("port", "p", 4000, "server port")
	flag.Parse()

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			fmt.Println(sc.Text())
		}
		fmt.Println("server closed connection")
	}()

	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			if _, err := fmt.Fprintln(conn, line); err != nil {
				return
			}
		}
		// stdin EOF: half-close so the server sees us leave.
		conn.Close()
	}()

	<-done
}
