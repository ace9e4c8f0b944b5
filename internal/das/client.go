// Package das 封装 DAS（Digital Asset Standard）indexer 的只读接口，
// 用于压缩 NFT / Core NFT 的资产元数据与 merkle proof 查询。
package das

import (
	"context"
	"fmt"
	"time"

	"wallet-tx-sol/internal/pkg/jsonrpc"
)

// Asset 为 getAsset 返回中本管线关心的字段子集
type Asset struct {
	ID          string      `json:"id"`
	Compression Compression `json:"compression"`
	Ownership   Ownership   `json:"ownership"`
	Grouping    []Grouping  `json:"grouping"`
}

type Compression struct {
	Compressed  bool   `json:"compressed"`
	Tree        string `json:"tree"`
	LeafID      uint64 `json:"leaf_id"`
	DataHash    string `json:"data_hash"`
	CreatorHash string `json:"creator_hash"`
	Seq         uint64 `json:"seq"`
}

type Ownership struct {
	Owner     string `json:"owner"`
	Delegate  string `json:"delegate"`
	Delegated bool   `json:"delegated"`
}

type Grouping struct {
	GroupKey   string `json:"group_key"`
	GroupValue string `json:"group_value"`
}

// AssetProof 为 getAssetProof 的返回结构
type AssetProof struct {
	Root      string   `json:"root"`
	Proof     []string `json:"proof"`
	NodeIndex uint64   `json:"node_index"`
	Leaf      string   `json:"leaf"`
	TreeID    string   `json:"tree_id"`
}

// Fetcher 是资产装配器消费的最小接口，便于测试替身
type Fetcher interface {
	GetAsset(ctx context.Context, assetID string) (*Asset, error)
	GetAssetProof(ctx context.Context, assetID string) (*AssetProof, error)
}

type Client struct {
	rpc *jsonrpc.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{rpc: jsonrpc.NewClient(endpoint, timeout)}
}

type assetParams struct {
	ID string `json:"id"`
}

func (c *Client) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	var asset Asset
	if err := c.rpc.Call(ctx, "getAsset", assetParams{ID: assetID}, &asset); err != nil {
		return nil, fmt.Errorf("getAsset %s: %w", assetID, err)
	}
	if asset.ID == "" {
		return nil, fmt.Errorf("getAsset %s: asset not found", assetID)
	}
	return &asset, nil
}

func (c *Client) GetAssetProof(ctx context.Context, assetID string) (*AssetProof, error) {
	var proof AssetProof
	if err := c.rpc.Call(ctx, "getAssetProof", assetParams{ID: assetID}, &proof); err != nil {
		return nil, fmt.Errorf("getAssetProof %s: %w", assetID, err)
	}
	if proof.Root == "" || proof.TreeID == "" {
		return nil, fmt.Errorf("getAssetProof %s: proof not found", assetID)
	}
	return &proof, nil
}
