package sqlinline

const QSelectProviderKey = `--sql 4f6cbe2a-91d8-47c3-b014-7aa52e0cf3d9
select api_key
from provider_credentials
where provider = $1::text
limit 1;
`

const QUpsertProviderKey = `--sql d2a95f70-63bc-45e1-9c08-b14e83f6a2c7
insert into provider_credentials (id, provider, api_key, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    properties = excluded.properties,
    updated_at = now();
`
