package galaxy

import "context"

// ListGenomes lists the instance's built-in reference genomes. The server
// reports each genome as a [name, id] pair.
func (c *Client) ListGenomes(ctx context.Context) ([]ReferenceGenome, error) {
	var pairs [][]string
	if err := c.get(ctx, "ListGenomes", "genomes", nil, &pairs); err != nil {
		return nil, err
	}

	genomes := make([]ReferenceGenome, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		genomes = append(genomes, ReferenceGenome{Name: pair[0], ID: pair[1]})
	}
	return genomes, nil
}
