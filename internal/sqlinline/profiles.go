package sqlinline

const QSelectProfile = `--sql 60df6444-17f8-474a-83d6-08472940b090
select user_id, account_type, first_name, last_name, phone, country, city, bio, details, profile_completed, created_at, updated_at
from profiles
where user_id = $1::uuid
limit 1;
`

const QUpdateProfile = `--sql f398a8b9-09fc-4803-812b-8e2dae4db980
update profiles
set first_name = $2::text,
    last_name = $3::text,
    phone = $4::text,
    country = $5::text,
    city = $6::text,
    bio = $7::text,
    details = coalesce($8::jsonb, '{}'::jsonb),
    profile_completed = $9::boolean,
    updated_at = now()
where user_id = $1::uuid
returning user_id, account_type, first_name, last_name, phone, country, city, bio, details, profile_completed, created_at, updated_at;
`
